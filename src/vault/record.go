package vault

import (
	"sync"
	"time"

	"github.com/mendnet/mend/src/coin"
)

// Record is a checked-out handle on one coin's fragment. Acquire returns the
// record with its lock held; the caller compares or replaces the value, then
// calls Release. Holding the lock for the whole exchange is what makes a
// compare-then-replace atomic from the point of view of other requests.
type Record struct {
	mu      sync.Mutex
	ref     coin.Ref
	value   coin.AuthValue
	updated time.Time
	wrote   func(coin.Ref)
}

// Ref returns the coin the record belongs to.
func (r *Record) Ref() coin.Ref {
	return r.ref
}

// AuthValue returns the fragment currently on file.
func (r *Record) AuthValue() coin.AuthValue {
	return r.value
}

// SetAuthValue replaces the fragment on file and stamps the update time.
func (r *Record) SetAuthValue(value coin.AuthValue) {
	r.value = value
	r.updated = time.Now()
	if r.wrote != nil {
		r.wrote(r.ref)
	}
}

// Updated returns the time of the last replacement.
func (r *Record) Updated() time.Time {
	return r.updated
}

// Release hands the record back to the vault.
func (r *Record) Release() {
	r.mu.Unlock()
}
