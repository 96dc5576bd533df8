package service

import "sync"

type fileLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per file id. Entries are reference counted
// and removed once the last holder unlocks, so the map does not grow with
// every id ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*fileLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*fileLock)}
}

func (k *keyedMutex) Lock(id string) {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &fileLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) Unlock(id string) {
	k.mu.Lock()
	l := k.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}

// size reports how many ids currently hold an entry.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
