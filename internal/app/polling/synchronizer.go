// Package polling runs cancellable periodic fetches: the navbar unread count
// and the banner rotation are both instances of it.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
)

// ErrNotEligible is returned by Start when the eligibility check fails up
// front. No goroutine is started in that case.
var ErrNotEligible = errors.New("polling: not eligible to start")

// FetchFunc does one unit of work. Its context is cancelled on Stop and
// after one interval at the latest.
type FetchFunc func(ctx context.Context) error

// EligibilityFunc is consulted before every tick; false stops the poll.
type EligibilityFunc func() bool

type startOptions struct {
	deferred bool
}

type Option func(*startOptions)

// Deferred skips the immediate fetch so the first call happens one interval
// after Start.
func Deferred() Option {
	return func(o *startOptions) { o.deferred = true }
}

// Synchronizer starts named polls on a clock.
type Synchronizer struct {
	name   string
	clock  clockwork.Clock
	logger *zap.Logger
}

func New(name string, clock clockwork.Clock, logger *zap.Logger) *Synchronizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		name:   name,
		clock:  clock,
		logger: logger.With(zap.String("poll", name)),
	}
}

// Clock is the clock polls are scheduled on.
func (s *Synchronizer) Clock() clockwork.Clock { return s.clock }

// Handle controls one running poll.
type Handle struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	active   atomic.Bool
	fetches  atomic.Int64
	skipped  atomic.Int64
}

// Stop cancels the poll and waits for its goroutine to exit. It may be
// called any number of times.
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
	<-h.done
}

// Done is closed when the poll has exited for any reason.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Active reports whether the poll is still running.
func (h *Handle) Active() bool { return h.active.Load() }

// Fetches is the number of fetches started so far.
func (h *Handle) Fetches() int64 { return h.fetches.Load() }

// Skipped is the number of ticks dropped because a fetch was still running.
func (h *Handle) Skipped() int64 { return h.skipped.Load() }

// Start calls fetch now (or after one interval with Deferred) and then every
// interval while isEligible holds and ctx is alive. A failing fetch is
// logged and counted; it neither stops the poll nor changes its cadence.
// A tick that falls while the previous fetch is still running is skipped.
func (s *Synchronizer) Start(ctx context.Context, fetch FetchFunc, interval time.Duration, isEligible EligibilityFunc, opts ...Option) (*Handle, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("polling %s: interval must be positive, got %s", s.name, interval)
	}
	if fetch == nil {
		return nil, fmt.Errorf("polling %s: fetch cannot be nil", s.name)
	}
	if isEligible == nil {
		isEligible = func() bool { return true }
	}
	if !isEligible() {
		return nil, ErrNotEligible
	}

	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	h.active.Store(true)

	ticker := s.clock.NewTicker(interval)
	go s.run(ctx, h, ticker, fetch, interval, isEligible, o)

	s.logger.Debug("Poll started", zap.Duration("interval", interval), zap.Bool("deferred", o.deferred))
	return h, nil
}

func (s *Synchronizer) run(ctx context.Context, h *Handle, ticker clockwork.Ticker, fetch FetchFunc, interval time.Duration, isEligible EligibilityFunc, o startOptions) {
	defer close(h.done)
	defer h.active.Store(false)
	defer ticker.Stop()

	var lastFinished time.Time
	if !o.deferred {
		lastFinished = s.fetchOnce(ctx, h, fetch, interval)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Poll stopped")
			return
		case tick := <-ticker.Chan():
			if ctx.Err() != nil {
				s.logger.Debug("Poll stopped")
				return
			}
			if !isEligible() {
				s.logger.Debug("Poll no longer eligible, stopping")
				return
			}
			if tick.Before(lastFinished) {
				h.skipped.Add(1)
				metrics.Get().PollSkippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("poll", s.name)))
				s.logger.Debug("Skipping tick that fired during the previous fetch", zap.Time("tick", tick))
				continue
			}
			lastFinished = s.fetchOnce(ctx, h, fetch, interval)
		}
	}
}

// fetchOnce runs fetch bounded by one interval and returns when it finished.
func (s *Synchronizer) fetchOnce(ctx context.Context, h *Handle, fetch FetchFunc, interval time.Duration) time.Time {
	attrs := metric.WithAttributes(attribute.String("poll", s.name))
	h.fetches.Add(1)
	metrics.Get().PollTicksTotal.Add(ctx, 1, attrs)

	fetchCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	if err := fetch(fetchCtx); err != nil {
		if ctx.Err() != nil {
			return s.clock.Now()
		}
		metrics.Get().PollFailuresTotal.Add(ctx, 1, attrs)
		s.logger.Warn("Poll fetch failed", zap.Error(err))
	}
	return s.clock.Now()
}
