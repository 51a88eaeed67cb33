package broadcast

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_FanOutInOrder(t *testing.T) {
	var b Bus
	var got []string

	b.Subscribe("products-changed", func(e string) { got = append(got, "first:"+e) })
	b.Subscribe("products-changed", func(e string) { got = append(got, "second:"+e) })
	b.Subscribe("orders-changed", func(e string) { got = append(got, "orders") })

	b.Publish("products-changed")

	assert.Equal(t, []string{"first:products-changed", "second:products-changed"}, got)
}

func TestBus_MultipleEvents(t *testing.T) {
	b := New()
	counts := map[string]int{}
	for _, e := range []string{"products-changed", "productsUpdated"} {
		b.Subscribe(e, func(e string) { counts[e]++ })
	}

	b.Publish("products-changed", "productsUpdated")

	assert.Equal(t, map[string]int{"products-changed": 1, "productsUpdated": 1}, counts)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	calls := 0
	unsubscribe := b.Subscribe("blog-changed", func(string) { calls++ })

	b.Publish("blog-changed")
	unsubscribe()
	unsubscribe()
	b.Publish("blog-changed")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Subscribers("blog-changed"))
}

func TestBus_HandlerMayUnsubscribeDuringPublish(t *testing.T) {
	b := New()
	var unsubscribe func()
	calls := 0
	unsubscribe = b.Subscribe("users-changed", func(string) {
		calls++
		unsubscribe()
	})
	other := 0
	b.Subscribe("users-changed", func(string) { other++ })

	b.Publish("users-changed")
	b.Publish("users-changed")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestBus_ConcurrentUse(t *testing.T) {
	b := New()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe("x", func(string) {
				mu.Lock()
				total++
				mu.Unlock()
			})
			b.Publish("x")
			unsub()
		}()
	}
	wg.Wait()

	assert.Positive(t, total)
	assert.Equal(t, 0, b.Subscribers("x"))
}

func TestBus_SubscribeAnyDeliversOncePerPublish(t *testing.T) {
	b := New()
	var got []string
	unsubscribe := b.SubscribeAny(func(e string) { got = append(got, e) }, "products-changed", "productsUpdated")
	single := 0
	b.Subscribe("productsUpdated", func(string) { single++ })

	b.Publish("products-changed", "productsUpdated")
	assert.Equal(t, []string{"products-changed"}, got)
	assert.Equal(t, 1, single)

	b.Publish("productsUpdated")
	assert.Equal(t, []string{"products-changed", "productsUpdated"}, got)

	unsubscribe()
	b.Publish("products-changed", "productsUpdated")
	assert.Len(t, got, 2)
	assert.Equal(t, 0, b.Subscribers("products-changed"))
	assert.Equal(t, 1, b.Subscribers("productsUpdated"))
}
