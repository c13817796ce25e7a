package ledger

import (
	"fmt"
	"sync"
)

// lockManager serializes ledger operations per (bond, investor) pair
// within this process. The database row locks remain the cross-process
// guard; the in-process mutex keeps a single instance from piling
// concurrent transactions onto the same rows.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockManager() *lockManager {
	return &lockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

func positionKey(bondID int64, investorKey string) string {
	return fmt.Sprintf("%d/%s", bondID, investorKey)
}

// acquire returns the mutex for the pair, creating it on first use.
// Mutexes are never removed; the map grows with the set of touched
// positions, which is bounded by the position table itself.
func (m *lockManager) acquire(bondID int64, investorKey string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := positionKey(bondID, investorKey)
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
