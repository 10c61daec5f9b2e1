package engine

import "sync"

// KeyLock serializes the load-mutate-save cycle per store key. The
// backing store has no concurrency token, so two unserialized writers
// to the same key would silently clobber each other.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func. Key
// mutexes are never discarded; the engine only ever uses a fixed,
// small set of keys.
func (l *KeyLock) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
