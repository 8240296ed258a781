package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"wager-engine/internal/notify/platforms"
	"wager-engine/internal/wager"

	"github.com/rs/zerolog/log"
)

var errCircuitOpen = errors.New("circuit_open")

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Notifier pushes bet lifecycle events to operator webhooks. Publish never
// blocks the engine: a full queue drops the message.
type Notifier struct {
	cfg      Config
	adapters map[string]platforms.Adapter

	dispatchCh chan job
	retryQ     *retryQueue
	done       chan struct{}

	mu           sync.Mutex
	started      bool
	breakerByKey map[string]breakerState
}

func New(cfg Config) *Notifier {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}
	n := &Notifier{
		cfg: cfg,
		adapters: map[string]platforms.Adapter{
			"discord": platforms.NewDiscordAdapter(client),
			"feishu":  platforms.NewFeishuAdapter(client),
		},
		dispatchCh:   make(chan job, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		breakerByKey: map[string]breakerState{},
	}
	n.retryQ = newRetryQueue(n.dispatchCh, n.done)
	return n
}

func (n *Notifier) Start(ctx context.Context) {
	if !n.cfg.Enabled {
		return
	}
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()

	for i := 0; i < n.cfg.Workers; i++ {
		go n.worker(ctx)
	}
	go func() {
		<-ctx.Done()
		close(n.done)
	}()
	log.Info().Int("targets", len(n.cfg.Targets)).Msg("operator notifications started")
}

// Publish matches the engine's publisher contract. Events that do not carry a bet are ignored.
func (n *Notifier) Publish(_, _, event string, data any) {
	if !n.cfg.Enabled {
		return
	}
	bet, ok := data.(wager.Bet)
	if !ok {
		return
	}
	ev := Event{Type: event, Bet: bet}
	if _, ok := FormatMessage(ev); !ok {
		return
	}
	for _, t := range matchTargets(n.cfg.Targets, ev) {
		n.enqueue(job{Target: t, Event: ev})
	}
}

func (n *Notifier) enqueue(j job) bool {
	select {
	case n.dispatchCh <- j:
		metricQueuedTotal.Add(1)
		metricQueueLen.Set(int64(len(n.dispatchCh)))
		return true
	default:
		metricDroppedTotal.Add(1)
		log.Warn().Str("bet_id", j.Event.Bet.ID).Str("event", j.Event.Type).Msg("notify queue full")
		return false
	}
}

func (n *Notifier) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case j := <-n.dispatchCh:
			metricQueueLen.Set(int64(len(n.dispatchCh)))
			n.process(ctx, j)
		}
	}
}

func (n *Notifier) process(ctx context.Context, j job) {
	adapter := n.adapters[j.Target.Platform]
	if adapter == nil {
		metricDroppedTotal.Add(1)
		return
	}
	msg, ok := FormatMessage(j.Event)
	if !ok {
		return
	}
	if err := n.beforeSend(j.key(), time.Now()); err != nil {
		metricCircuitOpenTotal.Add(1)
		n.retryOrDrop(j, err)
		return
	}
	if err := adapter.Send(ctx, j.Target.Endpoint, j.Target.Secret, msg); err != nil {
		metricFailedTotal.Add(1)
		n.afterFailure(j.key(), time.Now())
		n.retryOrDrop(j, err)
		return
	}
	metricSentTotal.Add(1)
	n.afterSuccess(j.key())
}

func (n *Notifier) retryOrDrop(j job, err error) {
	if j.Attempt >= n.cfg.RetryMax {
		metricRetryDroppedTotal.Add(1)
		log.Warn().Err(err).Str("platform", j.Target.Platform).Str("bet_id", j.Event.Bet.ID).Msg("notification dropped")
		return
	}
	j.Attempt++
	metricRetryTotal.Add(1)
	n.retryQ.Enqueue(j, n.cfg.RetryBase*time.Duration(1<<(j.Attempt-1)))
}

func (n *Notifier) beforeSend(key string, now time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	state := n.breakerByKey[key]
	if !state.openUntil.IsZero() && now.Before(state.openUntil) {
		return errCircuitOpen
	}
	return nil
}

func (n *Notifier) afterFailure(key string, now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	state := n.breakerByKey[key]
	state.consecutiveFailures++
	if state.consecutiveFailures >= n.cfg.FailureThreshold {
		state.openUntil = now.Add(n.cfg.CircuitOpenDuration)
		state.consecutiveFailures = 0
	}
	n.breakerByKey[key] = state
}

func (n *Notifier) afterSuccess(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.breakerByKey[key] = breakerState{}
}

type retryQueue struct {
	out  chan<- job
	done <-chan struct{}
}

func newRetryQueue(out chan<- job, done <-chan struct{}) *retryQueue {
	return &retryQueue{out: out, done: done}
}

func (q *retryQueue) Enqueue(j job, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		select {
		case <-q.done:
		case q.out <- j:
		}
	})
}
