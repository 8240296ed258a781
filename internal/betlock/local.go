package betlock

import (
	"context"
	"sync"
	"time"

	"wager-engine/internal/wager"
)

// Locker serializes mutations of one bet. Release must be called on every path.
type Locker interface {
	Acquire(ctx context.Context, betID string) (release func(), err error)
}

// Local is an in-process keyed lock. Slots are dropped once nobody holds or waits on them.
type Local struct {
	timeout time.Duration
	mu      sync.Mutex
	slots   map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal(timeout time.Duration) *Local {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Local{timeout: timeout, slots: map[string]*slot{}}
}

func (l *Local) Acquire(ctx context.Context, betID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[betID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[betID] = s
	}
	s.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()
	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.drop(betID, s)
			})
		}, nil
	case <-timer.C:
		l.drop(betID, s)
		return nil, wager.ErrBusy
	case <-ctx.Done():
		l.drop(betID, s)
		return nil, ctx.Err()
	}
}

func (l *Local) drop(betID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, betID)
	}
}

func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
