package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)
	c.Set("a", "x")
	c.Set("b", "y")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "y2")

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != "y2" {
		t.Errorf("Get(b) = %q, %v", v, ok)
	}

	clock.t = clock.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_Add(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[struct{}](10, time.Minute).WithClock(clock.now)

	if !c.Add("evt-1", struct{}{}) {
		t.Fatal("first Add should store")
	}
	if c.Add("evt-1", struct{}{}) {
		t.Fatal("second Add should report a duplicate")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if !c.Add("evt-1", struct{}{}) {
		t.Fatal("Add after expiry should store again")
	}
	c.Delete("evt-1")
	if c.Size() != 0 {
		t.Errorf("Size() = %d after delete", c.Size())
	}
}

func TestManager_CleanOnceAndRun(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c1 := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	c2 := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	c1.Set("a", 1)
	c2.Set("b", 2)
	c2.Set("c", 3)

	m := NewManager(c1)
	m.Register(c2)
	clock.t = clock.t.Add(time.Minute)
	if n := m.CleanOnce(); n != 3 {
		t.Errorf("CleanOnce() = %d, want 3", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
