package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	limiter := New(time.Second)
	if limiter == nil {
		t.Fatal("New() returned nil")
	}
	if limiter.clients == nil {
		t.Fatal("New() returned limiter with nil clients map")
	}
	if limiter.minInterval != time.Second {
		t.Errorf("New() minInterval = %v, want %v", limiter.minInterval, time.Second)
	}
}

func TestAllow_FirstRequest(t *testing.T) {
	limiter := New(100 * time.Millisecond)

	if !limiter.Allow("user-1") {
		t.Error("Allow() should return true for a client's first action")
	}
}

func TestAllow_SecondRequestTooSoon(t *testing.T) {
	limiter := New(100 * time.Millisecond)

	limiter.Allow("user-1")
	if limiter.Allow("user-1") {
		t.Error("Allow() should return false before minInterval")
	}
}

func TestAllow_SecondRequestAfterInterval(t *testing.T) {
	limiter := New(50 * time.Millisecond)

	limiter.Allow("user-1")
	time.Sleep(60 * time.Millisecond)

	if !limiter.Allow("user-1") {
		t.Error("Allow() should return true after minInterval has passed")
	}
}

func TestAllow_DifferentClients(t *testing.T) {
	limiter := New(100 * time.Millisecond)

	limiter.Allow("user-1")
	if !limiter.Allow("user-2") {
		t.Error("Allow() should return true for a different client")
	}
}

func TestWait_SecondRequestWaits(t *testing.T) {
	limiter := New(50 * time.Millisecond)

	limiter.Wait("user-1")
	start := time.Now()
	limiter.Wait("user-1")
	elapsed := time.Since(start)

	// Should wait close to 50ms (allow some tolerance)
	if elapsed < 40*time.Millisecond {
		t.Errorf("Wait() should wait for minInterval, elapsed: %v", elapsed)
	}
}

func TestReset(t *testing.T) {
	limiter := New(100 * time.Millisecond)

	limiter.Allow("user-1")
	if limiter.Allow("user-1") {
		t.Fatal("Second Allow() should return false before reset")
	}

	limiter.Reset("user-1")

	if !limiter.Allow("user-1") {
		t.Error("Allow() should return true after Reset()")
	}
}

func TestResetAll(t *testing.T) {
	limiter := New(100 * time.Millisecond)

	limiter.Allow("user-1")
	limiter.Allow("user-2")

	limiter.ResetAll()

	if !limiter.Allow("user-1") || !limiter.Allow("user-2") {
		t.Error("Allow() should return true for all clients after ResetAll()")
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter := New(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%3))
			for j := 0; j < 100; j++ {
				limiter.Allow(key)
			}
		}(i)
	}
	wg.Wait()
}
