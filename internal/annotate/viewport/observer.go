// Package viewport replaces a global resize hook with scoped subscriptions:
// each mounted screen subscribes on mount and releases on close.
package viewport

import (
	"sync"

	"annotator/internal/annotate/geometry"
)

// Observer fans display sizes out to subscribers. Callbacks must not publish
// to or subscribe on the observer that invokes them.
type Observer struct {
	// deliver spans a whole publish so subscribers see sizes in the same
	// order last was written.
	deliver sync.Mutex

	mu     sync.Mutex
	nextID int
	subs   map[int]func(geometry.Size)
	last   geometry.Size
}

func NewObserver() *Observer {
	return &Observer{subs: make(map[int]func(geometry.Size))}
}

// Subscribe registers fn and returns its release function. Release is
// idempotent. A subscriber that joins after a publish immediately receives the
// latest size.
func (o *Observer) Subscribe(fn func(geometry.Size)) (cancel func()) {
	o.deliver.Lock()
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.subs[id] = fn
	last := o.last
	o.mu.Unlock()
	if last.Valid() {
		fn(last)
	}
	o.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Publish delivers size to every current subscriber. Concurrent publishes are
// last-writer-wins: the final size every subscriber sees is Last().
func (o *Observer) Publish(size geometry.Size) {
	o.deliver.Lock()
	defer o.deliver.Unlock()
	o.mu.Lock()
	o.last = size
	fns := make([]func(geometry.Size), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(size)
	}
}

// Last is the most recently published size.
func (o *Observer) Last() geometry.Size {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Observer) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
