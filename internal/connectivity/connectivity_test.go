package connectivity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestReconnectFiresOncePerEdge(t *testing.T) {
	fired := 0
	m := NewMonitor(func() { fired++ })

	m.SetOnline(false)
	m.SetOnline(true)
	if fired != 1 {
		t.Fatalf("after one edge: fired %d, want 1", fired)
	}

	// Steady online readings are not edges
	m.SetOnline(true)
	m.SetOnline(true)
	m.SetOnline(true)
	if fired != 1 {
		t.Fatalf("after steady readings: fired %d, want 1", fired)
	}

	// A second genuine edge fires again
	m.SetOnline(false)
	m.SetOnline(true)
	if fired != 2 {
		t.Fatalf("after second edge: fired %d, want 2", fired)
	}
}

func TestFirstReadingIsNotAnEdge(t *testing.T) {
	fired := 0
	m := NewMonitor(func() { fired++ })

	// Starting up already online must not look like a reconnect
	m.SetOnline(true)
	if fired != 0 {
		t.Fatalf("startup online reading fired %d callbacks", fired)
	}
	if !m.Online() {
		t.Fatal("level not recorded")
	}
}

func TestOfflineReadingNeverFires(t *testing.T) {
	fired := 0
	m := NewMonitor(func() { fired++ })

	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(false)
	if fired != 0 {
		t.Fatalf("offline readings fired %d callbacks", fired)
	}
	if m.Online() {
		t.Fatal("level should be offline")
	}
}

func TestRunPollsUntilCancelled(t *testing.T) {
	var probes atomic.Int32
	m := NewMonitor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx, func() bool {
			probes.Add(1)
			return true
		}, 5*time.Millisecond)
	}()

	// First probe is immediate; give the ticker room for a few more
	deadline := time.After(time.Second)
	for probes.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d probes before deadline", probes.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !m.Online() {
		t.Fatal("level not fed through SetOnline")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestNilCallback(t *testing.T) {
	m := NewMonitor(nil)
	m.SetOnline(false)
	m.SetOnline(true) // must not panic
	if !m.Online() {
		t.Fatal("level lost")
	}
}
