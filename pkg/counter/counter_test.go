package counter_test

import (
	"sync"
	"testing"

	// Packages
	counter "github.com/mutablelogic/go-upload/pkg/counter"
	assert "github.com/stretchr/testify/assert"
)

func Test_Counter_Zero(t *testing.T) {
	assert := assert.New(t)

	var c counter.Counter
	assert.True(c.IsZero())

	c.Increment()
	c.Increment()
	assert.False(c.IsZero())
	assert.Equal(2, c.Value())

	c.Decrement()
	assert.False(c.IsZero())
	c.Decrement()
	assert.True(c.IsZero())
}

func Test_Counter_OnceZeroImmediate(t *testing.T) {
	assert := assert.New(t)

	var c counter.Counter
	calls := 0
	c.OnceZero(func() { calls++ })
	assert.Equal(1, calls)

	// Not registered for the next crossing
	c.Increment()
	c.Decrement()
	assert.Equal(1, calls)
}

func Test_Counter_OnceZeroDeferred(t *testing.T) {
	assert := assert.New(t)

	var c counter.Counter
	calls := 0
	c.Increment()
	c.Increment()
	c.OnceZero(func() { calls++ })
	c.OnceZero(func() { calls += 10 })

	c.Decrement()
	assert.Equal(0, calls)
	c.Decrement()
	assert.Equal(11, calls)

	// Fires at most once
	c.Increment()
	c.Decrement()
	assert.Equal(11, calls)
}

func Test_Counter_ListenerMayRegister(t *testing.T) {
	assert := assert.New(t)

	var c counter.Counter
	var order []string
	c.Increment()
	c.OnceZero(func() {
		order = append(order, "first")
		c.OnceZero(func() { order = append(order, "nested") })
	})
	c.Decrement()
	assert.Equal([]string{"first", "nested"}, order)
}

func Test_Counter_Concurrent(t *testing.T) {
	assert := assert.New(t)

	var c counter.Counter
	var wg sync.WaitGroup
	const n = 100

	for i := 0; i < n; i++ {
		c.Increment()
	}
	fired := make(chan struct{}, 1)
	c.OnceZero(func() { fired <- struct{}{} })

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Decrement()
		}()
	}
	wg.Wait()

	assert.True(c.IsZero())
	assert.Len(fired, 1)
}
