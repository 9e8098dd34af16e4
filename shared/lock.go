package shared

import "sync"

// KeyedMutex serializes read-modify-write cycles per document key so that
// concurrent aggregate updates against the same document cannot lose
// increments. Mutexes are kept for the process lifetime; the keyspace is
// bounded by the number of documents touched.
type KeyedMutex struct {
	locks sync.Map
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the mutex for key and returns its unlock function.
//
//	defer locks.Lock(collection + "/" + id)()
func (m *KeyedMutex) Lock(key string) func() {
	v, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
