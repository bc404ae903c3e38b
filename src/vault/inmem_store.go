package vault

import (
	"sync"
	"time"

	"github.com/mendnet/mend/src/coin"
	cm "github.com/mendnet/mend/src/common"
)

// InmemStore implements the Store interface with an in-memory record table.
// Nothing is persisted, so it is only suitable for tests and throwaway
// networks; a restarted node would come back knowing nothing.
type InmemStore struct {
	mu      sync.RWMutex
	records map[coin.Ref]*Record

	// dirtyHook, when set, is told about every write so a persistent
	// wrapper can schedule it for disk.
	dirtyHook func(coin.Ref)
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		records: make(map[coin.Ref]*Record),
	}
}

// Acquire implements the Store interface.
func (s *InmemStore) Acquire(ref coin.Ref) (*Record, error) {
	s.mu.RLock()
	r, ok := s.records[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, cm.NewStoreErr("Record", cm.KeyNotFound, ref.String())
	}

	r.mu.Lock()

	return r, nil
}

// Add implements the Store interface.
func (s *InmemStore) Add(ref coin.Ref, value coin.AuthValue) error {
	return s.add(ref, value, time.Now())
}

func (s *InmemStore) add(ref coin.Ref, value coin.AuthValue, updated time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[ref]; ok {
		return cm.NewStoreErr("Record", cm.KeyAlreadyExists, ref.String())
	}

	s.records[ref] = &Record{
		ref:     ref,
		value:   value,
		updated: updated,
		wrote:   s.noteWrite,
	}

	if s.dirtyHook != nil {
		s.dirtyHook(ref)
	}

	return nil
}

// Count implements the Store interface.
func (s *InmemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Flush implements the Store interface. It is a no-op.
func (s *InmemStore) Flush() error {
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}

func (s *InmemStore) noteWrite(ref coin.Ref) {
	if s.dirtyHook != nil {
		s.dirtyHook(ref)
	}
}
