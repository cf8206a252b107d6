package session

import "sync"

// DraftLocks serializes the read-merge-write cycle of sessions that save into
// the same draft. A nil *DraftLocks does no locking.
type DraftLocks struct {
	mu    sync.Mutex
	locks map[string]*draftLock
}

type draftLock struct {
	mu   sync.Mutex
	refs int
}

func NewDraftLocks() *DraftLocks {
	return &DraftLocks{locks: map[string]*draftLock{}}
}

// Lock blocks until the draft is free and returns its unlock func.
func (d *DraftLocks) Lock(draftID string) (unlock func()) {
	if d == nil {
		return func() {}
	}
	d.mu.Lock()
	l, ok := d.locks[draftID]
	if !ok {
		l = &draftLock{}
		d.locks[draftID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, draftID)
		}
		d.mu.Unlock()
	}
}
