package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_TrailingEdgeLastArgs(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	done := make(chan struct{}, 1)
	d := New(50*time.Millisecond, func(q string) {
		mu.Lock()
		calls = append(calls, q)
		mu.Unlock()
		done <- struct{}{}
	})

	for _, q := range []string{"c", "ch", "cha", "chan", "chant"} {
		d.Call(q)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
	// Give a stray second invocation a chance to show up.
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"chant"}, calls)
}

func TestDebouncer_Stop(t *testing.T) {
	called := make(chan struct{}, 1)
	d := New(20*time.Millisecond, func(int) { called <- struct{}{} })

	d.Call(1)
	d.Stop()

	select {
	case <-called:
		t.Fatal("stopped debouncer still fired")
	case <-time.After(100 * time.Millisecond):
	}
}
