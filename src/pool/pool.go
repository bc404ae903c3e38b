// Package pool implements the ticket pool at the heart of a mend node.
//
// A ticket is the node's short-lived testimony that a batch of coins passed
// authentication together. Tickets live in a fixed array of slots, each
// guarded by its own lock, so concurrent requests contend per ticket rather
// than on the pool as a whole. There is no background sweeper: slots past
// their TTL are recycled by whichever request scans over them next.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mendnet/mend/src/crypto"
)

var (
	// ErrFull is returned by Allocate when every slot is live or in use.
	ErrFull = errors.New("ticket pool is full")

	// ErrNotFound is returned by Find when no live ticket carries the
	// requested identifier.
	ErrNotFound = errors.New("ticket not found")
)

// Pool is a fixed-size arena of ticket slots.
type Pool struct {
	slots []*Ticket
	ttl   time.Duration

	// idMu serializes drawing an identifier and publishing it to a slot,
	// so two concurrent allocations cannot both pass the uniqueness scan
	// with the same draw.
	idMu sync.Mutex
}

// NewPool creates a Pool with size slots, each holding at most maxCoins
// coins, expiring ttl after allocation.
func NewPool(size int, maxCoins int, ttl time.Duration) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, not %d", size)
	}

	if maxCoins <= 0 {
		return nil, fmt.Errorf("ticket capacity must be positive, not %d", maxCoins)
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("ticket TTL must be positive, not %v", ttl)
	}

	slots := make([]*Ticket, size)
	for i := range slots {
		slots[i] = &Ticket{maxCoins: maxCoins}
	}

	return &Pool{
		slots: slots,
		ttl:   ttl,
	}, nil
}

// Allocate reserves a free slot and stamps it with a fresh identifier. The
// ticket is returned with its slot lock held; the caller appends coins and
// calls Release. Expired tickets encountered during the scan are recycled on
// the spot.
func (p *Pool) Allocate() (*Ticket, error) {
	now := time.Now()

	for _, t := range p.slots {
		if !t.mu.TryLock() {
			continue
		}

		if atomic.LoadUint32(&t.id) != 0 && !t.expired(now, p.ttl) {
			t.mu.Unlock()
			continue
		}

		t.reset()

		p.idMu.Lock()
		atomic.StoreUint32(&t.id, p.freshID())
		p.idMu.Unlock()

		t.createdAt = now

		return t, nil
	}

	return nil, ErrFull
}

// Find locates a live ticket by identifier and returns it with its slot lock
// held. A ticket past its TTL is recycled and reported as not found.
func (p *Pool) Find(id uint32) (*Ticket, error) {
	if id == 0 {
		return nil, ErrNotFound
	}

	for _, t := range p.slots {
		if atomic.LoadUint32(&t.id) != id {
			continue
		}

		t.mu.Lock()

		// The slot may have been recycled while we waited for the lock.
		if atomic.LoadUint32(&t.id) != id {
			t.mu.Unlock()
			continue
		}

		if t.expired(time.Now(), p.ttl) {
			t.reset()
			t.mu.Unlock()
			return nil, ErrNotFound
		}

		return t, nil
	}

	return nil, ErrNotFound
}

// Stats describes pool occupancy.
type Stats struct {
	Capacity int `json:"capacity"`
	Live     int `json:"live"`
	Busy     int `json:"busy"`
}

// Stats counts live tickets, recycling expired ones along the way. Slots
// locked by in-flight requests are counted as busy.
func (p *Pool) Stats() Stats {
	now := time.Now()
	s := Stats{Capacity: len(p.slots)}

	for _, t := range p.slots {
		if !t.mu.TryLock() {
			s.Busy++
			continue
		}

		if atomic.LoadUint32(&t.id) != 0 {
			if t.expired(now, p.ttl) {
				t.reset()
			} else {
				s.Live++
			}
		}

		t.mu.Unlock()
	}

	return s
}

// freshID draws random identifiers until one does not collide with any live
// ticket. Zero is reserved to mean "no ticket". Callers hold idMu so that the
// drawn identifier is published before anyone else draws.
func (p *Pool) freshID() uint32 {
	for {
		id := crypto.RandomTicketID()
		if !p.idInUse(id) {
			return id
		}
	}
}

func (p *Pool) idInUse(id uint32) bool {
	for _, t := range p.slots {
		if atomic.LoadUint32(&t.id) == id {
			return true
		}
	}
	return false
}
