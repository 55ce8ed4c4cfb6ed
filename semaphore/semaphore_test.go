package semaphore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/maystorm-os/kernel/clock"
	"github.com/maystorm-os/kernel/semaphore"
)

func TestTryToRespectsCount(t *testing.T) {
	s := semaphore.New(1)
	if !s.TryTo() {
		t.Fatal("expected first TryTo to succeed")
	}
	if s.TryTo() {
		t.Fatal("expected second TryTo to fail, count should be 0")
	}
}

func TestSignalWakesWaiter(t *testing.T) {
	s := semaphore.New(0)
	done := make(chan clock.Outcome, 1)
	go func() {
		done <- s.Wait(0)
	}()
	time.Sleep(20 * time.Millisecond)
	s.Signal()
	select {
	case outcome := <-done:
		if outcome != clock.Ok {
			t.Fatalf("got %v, want Ok", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal to wake waiter")
	}
}

func TestWaitTimesOut(t *testing.T) {
	s := semaphore.New(0)
	outcome := s.Wait(20 * time.Millisecond)
	if outcome != clock.TimedOut {
		t.Fatalf("got %v, want TimedOut", outcome)
	}
}

func TestSynchronizedMutualExclusion(t *testing.T) {
	s := semaphore.New(1)
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Synchronized(func() {
				counter++
			})
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("got %d, want 100", counter)
	}
}

func TestNoLostWakeupUnderConcurrentSignal(t *testing.T) {
	s := semaphore.New(0)
	var wg sync.WaitGroup
	results := make([]clock.Outcome, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Wait(2 * time.Second)
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 20; i++ {
		s.Signal()
	}
	wg.Wait()
	for i, o := range results {
		if o != clock.Ok {
			t.Fatalf("waiter %d got %v, want Ok", i, o)
		}
	}
}
