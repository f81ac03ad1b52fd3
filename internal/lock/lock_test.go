package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoryLockIsExclusivePerKey(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	unlock, ok, err := m.TryLock(ctx, "bot-1")
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := m.TryLock(ctx, "bot-1"); ok {
		t.Fatalf("second lock on same key must fail")
	}
	if _, ok, _ := m.TryLock(ctx, "bot-2"); !ok {
		t.Fatalf("other keys must not be blocked")
	}

	unlock()
	unlock()
	if _, ok, _ := m.TryLock(ctx, "bot-1"); !ok {
		t.Fatalf("lock should be free after unlock")
	}
}

func TestMemoryLockConcurrent(t *testing.T) {
	m := NewMemory()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := m.TryLock(context.Background(), "bot"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("got %d winners, want 1", wins)
	}
}

func TestNopAlwaysLocks(t *testing.T) {
	var n Nop
	for i := 0; i < 2; i++ {
		unlock, ok, err := n.TryLock(context.Background(), "bot")
		if !ok || err != nil {
			t.Fatalf("nop lock refused")
		}
		unlock()
	}
}
