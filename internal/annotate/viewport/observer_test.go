package viewport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"annotator/internal/annotate/geometry"
)

func TestSubscriptionsAreScoped(t *testing.T) {
	o := NewObserver()
	var a, b []geometry.Size
	cancelA := o.Subscribe(func(s geometry.Size) { a = append(a, s) })
	cancelB := o.Subscribe(func(s geometry.Size) { b = append(b, s) })
	assert.Equal(t, 2, o.Subscribers())

	o.Publish(geometry.Size{Width: 400, Height: 300})
	cancelA()
	cancelA()
	o.Publish(geometry.Size{Width: 800, Height: 600})

	assert.Equal(t, []geometry.Size{{Width: 400, Height: 300}}, a)
	assert.Len(t, b, 2)
	assert.Equal(t, 1, o.Subscribers())

	cancelB()
	assert.Equal(t, 0, o.Subscribers())
}

func TestLateSubscriberGetsLatestSize(t *testing.T) {
	o := NewObserver()
	o.Publish(geometry.Size{Width: 10, Height: 20})

	var got geometry.Size
	cancel := o.Subscribe(func(s geometry.Size) { got = s })
	defer cancel()
	assert.Equal(t, geometry.Size{Width: 10, Height: 20}, got)
}

func TestConcurrentPublishesEndOnLastSize(t *testing.T) {
	o := NewObserver()
	var (
		mu  sync.Mutex
		got geometry.Size
	)
	cancel := o.Subscribe(func(s geometry.Size) {
		mu.Lock()
		got = s
		mu.Unlock()
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			o.Publish(geometry.Size{Width: w, Height: w})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, o.Last(), got)
}
