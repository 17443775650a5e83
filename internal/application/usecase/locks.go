package usecase

import "sync"

// conversationLocks serializes turns per conversation id. Turns for
// different conversations proceed in parallel; two turns on the same id
// would race on the read-modify-write of the state record.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*lockEntry)}
}

// Acquire blocks until the lock for the id is held and returns the release
// function. Entries are reference-counted so the map does not grow without
// bound.
func (l *conversationLocks) Acquire(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
