// Package vault stores the authentication value fragments a node holds for
// every coin it knows about.
//
// The vault is the node's share of the network's secret material. Handlers
// check records out one at a time, compare or replace the 16-byte value, and
// hand them back. The InmemStore keeps everything in memory; the BadgerStore
// wraps it with write-behind persistence so a restarted node comes back with
// the fragments it had.
package vault

import (
	"github.com/mendnet/mend/src/coin"
)

// Store is an interface for vault backends.
type Store interface {
	// Acquire checks out the record for a coin and locks it for the caller.
	// The caller must Release the record when done.
	Acquire(ref coin.Ref) (*Record, error)
	// Add registers a brand new coin with its initial authentication value.
	Add(ref coin.Ref, value coin.AuthValue) error
	// Count returns the number of coins in the vault.
	Count() int
	// Flush writes pending records to disk.
	Flush() error
	// Close flushes and releases the underlying resources.
	Close() error
	// StorePath returns the filepath of the underlying database.
	StorePath() string
}
