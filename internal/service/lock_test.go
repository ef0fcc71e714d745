package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLocksSerializeSameID(t *testing.T) {
	locks := NewRequestLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("review-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestRequestLocksIndependentIDs(t *testing.T) {
	locks := NewRequestLocks()

	unlockA := locks.Lock("review-a")
	defer unlockA()

	// a different review must not block behind review-a
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("review-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different review id blocked")
	}
}

func TestRequestLocksForget(t *testing.T) {
	locks := NewRequestLocks()

	unlock := locks.Lock("review-1")
	unlock()
	require.Equal(t, 1, locks.Len())

	locks.Forget("review-1")
	assert.Equal(t, 0, locks.Len())

	// locking again after Forget works with a fresh entry
	unlock = locks.Lock("review-1")
	unlock()
	assert.Equal(t, 1, locks.Len())
}

func TestRequestLocksForgetSparesContendedLock(t *testing.T) {
	locks := NewRequestLocks()

	unlock := locks.Lock("review-1")

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		late := locks.Lock("review-1")
		close(acquired)
		late()
		close(released)
	}()

	// let the late caller queue up on the held mutex before forgetting
	time.Sleep(50 * time.Millisecond)
	locks.Forget("review-1")

	// the forgotten id must still resolve to the held mutex, not a fresh one
	select {
	case <-acquired:
		t.Fatal("late caller acquired a lock that was still held")
	default:
	}

	unlock()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("late caller never acquired the lock")
	}
}

func TestRequestLocksForgetDrainsOnRelease(t *testing.T) {
	locks := NewRequestLocks()

	unlock := locks.Lock("review-1")
	locks.Forget("review-1")

	// a held entry survives Forget so the holder keeps exclusive ownership
	require.Equal(t, 1, locks.Len())

	unlock()
	assert.Equal(t, 0, locks.Len())
}
