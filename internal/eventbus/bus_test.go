package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeferredUntilFlush(t *testing.T) {
	b := New[int](0)
	var got []int
	b.Subscribe(func(v int) { got = append(got, v) })

	b.Publish(1)
	b.Publish(2)
	assert.Empty(t, got, "publish must not dispatch")
	assert.Equal(t, 2, b.Pending())

	assert.Equal(t, 2, b.Flush())
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, 0, b.Flush())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New[string](0)
	var a, c []string
	ha := b.Subscribe(func(s string) { a = append(a, s) })
	b.Subscribe(func(s string) { c = append(c, s) })
	require.NotZero(t, ha)

	assert.True(t, b.Unsubscribe(ha))
	assert.False(t, b.Unsubscribe(ha))
	assert.Zero(t, b.Subscribe(nil))

	b.Publish("x")
	b.Flush()
	assert.Empty(t, a)
	assert.Equal(t, []string{"x"}, c)
}

func TestBus_PublishDuringFlushWaits(t *testing.T) {
	b := New[int](0)
	var got []int
	b.Subscribe(func(v int) {
		got = append(got, v)
		if v < 3 {
			b.Publish(v + 1)
		}
	})

	b.Publish(1)
	assert.Equal(t, 1, b.Flush())
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 1, b.Flush())
	assert.Equal(t, 1, b.Flush())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, b.Flush())
}

func TestBus_CapacityDrops(t *testing.T) {
	b := New[int](2)
	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	assert.Equal(t, 2, b.Pending())
	assert.Equal(t, 2, b.Flush())
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := New[int](0)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				b.Publish(i*100 + j)
			}
		}()
	}
	wg.Wait()

	var sum int
	b.Subscribe(func(v int) { sum += v })
	assert.Equal(t, 800, b.Flush())
	assert.Equal(t, 799*800/2, sum)
}
