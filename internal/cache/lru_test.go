package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	c.Set("a", "alpha")
	if v, ok := c.Get("a"); !ok || v != "alpha" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	c.Set("a", "again")
	if v, _ := c.Get("a"); v != "again" {
		t.Fatalf("overwrite lost: %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should be cached", k)
		}
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", "3")
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1 (b)", n)
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Errorf("c should survive: %q %v", v, ok)
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Delete("a")
	c.Delete("never-set")
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCache_GetOrCompute(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	var calls atomic.Int32
	compute := func() (string, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "html", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _, err := c.GetOrCompute("k", compute); err != nil || v != "html" {
				t.Errorf("GetOrCompute = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if got := calls.Load(); got < 1 || got > 8 {
		t.Fatalf("compute calls = %d", got)
	}

	v, hit, err := c.GetOrCompute("k", compute)
	if err != nil || !hit || v != "html" {
		t.Fatalf("second lookup = %q hit=%v err=%v", v, hit, err)
	}

	boom := errors.New("boom")
	if _, _, err := c.GetOrCompute("bad", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("failed computation must not be cached")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("b")
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("render"), []byte(`{"type":"budget-alert"}`))
	b := Digest([]byte("render"), []byte(`{"type":"budget-alert"}`))
	c := Digest([]byte("renderx"), []byte(`{"type":"budget-alert"}`))
	d := Digest([]byte("render{"), []byte(`"type":"budget-alert"}`))
	if a != b {
		t.Error("digest not stable")
	}
	if a == c || a == d {
		t.Error("digest collision across part boundaries")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d", len(a))
	}
}

func TestManager_Sweep(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	clock.t = clock.t.Add(2 * time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d", n)
	}
	m.StartCleanup(time.Millisecond)
	m.Stop()
}
