package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mendnet/mend/src/coin"
)

// Ticket is one slot of the pool. A live ticket records which coins passed
// authentication together and which peers have verified it so far.
//
// A ticket's fields are guarded by its slot lock. Allocate and Find return
// tickets with the lock held; the caller reads and updates the ticket, then
// calls Release.
type Ticket struct {
	mu        sync.Mutex
	id        uint32 // read atomically as a hint, written under mu
	createdAt time.Time
	coins     []coin.Ref
	claimed   uint64
	maxCoins  int
}

// ID returns the ticket identifier. Zero means the slot is free.
func (t *Ticket) ID() uint32 {
	return atomic.LoadUint32(&t.id)
}

// Coins returns a copy of the coins vouched for by the ticket.
func (t *Ticket) Coins() []coin.Ref {
	coins := make([]coin.Ref, len(t.coins))
	copy(coins, t.coins)
	return coins
}

// Append adds a coin to the ticket. It returns false when the ticket is at
// capacity.
func (t *Ticket) Append(ref coin.Ref) bool {
	if len(t.coins) >= t.maxCoins {
		return false
	}
	t.coins = append(t.coins, ref)
	return true
}

// Claim marks the ticket as verified by the given peer. It returns false if
// that peer had already claimed it.
func (t *Ticket) Claim(peer uint8) bool {
	bit := uint64(1) << peer
	if t.claimed&bit != 0 {
		return false
	}
	t.claimed |= bit
	return true
}

// Release hands the slot back to the pool. The ticket stays live until it
// expires or the slot is recycled.
func (t *Ticket) Release() {
	t.mu.Unlock()
}

func (t *Ticket) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.createdAt) > ttl
}

func (t *Ticket) reset() {
	atomic.StoreUint32(&t.id, 0)
	t.coins = nil
	t.claimed = 0
}
