package proxycore

import "sync"

// keyspaceMemo is a lock-protected cell recording the last keyspace USEd on
// any connection belonging to a pool, so newly opened connections can catch
// up. Readers are infrequent (connect time); writers are linearized by the
// mutex — races across connections are last-writer-wins, which is fine for
// a client-side memo.
type keyspaceMemo struct {
	mu       sync.RWMutex
	keyspace string
}

func (m *keyspaceMemo) get() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keyspace
}

func (m *keyspaceMemo) set(keyspace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyspace = keyspace
}
