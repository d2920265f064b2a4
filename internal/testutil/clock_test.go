package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickClock_StartsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), NewTickClock().Current())
}

func TestTickClock_NextAndAdvance(t *testing.T) {
	c := NewTickClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(12), c.Advance(10))
	assert.Equal(t, int64(12), c.Advance(-3), "never moves backwards")
	assert.Equal(t, int64(12), c.Current())
}

func TestTickClock_Reset(t *testing.T) {
	c := NewTickClock()
	c.Advance(5)
	c.Reset()
	assert.Equal(t, int64(1), c.Next())
}

func TestTickClock_Concurrent(t *testing.T) {
	c := NewTickClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}
