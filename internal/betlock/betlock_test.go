package betlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wager-engine/internal/testutil"
	"wager-engine/internal/wager"
)

func TestLocalSerializesSameBet(t *testing.T) {
	l := NewLocal(time.Second)
	var inFlight, maxSeen int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "bet-1")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer release()
			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if l.held() != 0 {
		t.Fatalf("slots left behind: %d", l.held())
	}
}

func TestLocalTimesOutWithBusy(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "bet-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if _, err := l.Acquire(context.Background(), "bet-1"); !errors.Is(err, wager.ErrBusy) {
		t.Fatalf("second Acquire err = %v, want busy", err)
	}
}

func TestLocalDifferentBetsDoNotBlock(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	r1, err := l.Acquire(context.Background(), "bet-1")
	if err != nil {
		t.Fatalf("Acquire bet-1: %v", err)
	}
	defer r1()
	r2, err := l.Acquire(context.Background(), "bet-2")
	if err != nil {
		t.Fatalf("Acquire bet-2: %v", err)
	}
	r2()
	r2()
	r3, err := l.Acquire(context.Background(), "bet-2")
	if err != nil {
		t.Fatalf("re-Acquire bet-2 after double release: %v", err)
	}
	r3()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal(time.Second)
	release, _ := l.Acquire(context.Background(), "bet-1")
	defer release()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Acquire(ctx, "bet-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRedisLockBusyAndRelease(t *testing.T) {
	client := testutil.OpenTestRedis(t)
	l := NewRedis(client, 50*time.Millisecond, time.Second)
	betID := "test-" + time.Now().Format("150405.000000000")

	release, err := l.Acquire(context.Background(), betID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := l.Acquire(context.Background(), betID); !errors.Is(err, wager.ErrBusy) {
		t.Fatalf("second Acquire err = %v, want busy", err)
	}
	release()
	again, err := l.Acquire(context.Background(), betID)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again()
}
