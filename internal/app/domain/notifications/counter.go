// Package notifications keeps the navbar unread count fresh and serves the
// notification pages.
package notifications

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
	"github.com/kaayjang/kaayjang-web/internal/app/polling"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
)

// Backend is the part of the REST client used for notifications.
type Backend interface {
	UnreadCount(ctx context.Context, token string) (int, error)
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, token, id string) error
}

// Session is the part of the session manager the counter follows.
type Session interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Event)) (unsubscribe func())
	Expire(epoch uint64) bool
}

// UnreadCounter polls the unread count while someone is signed in. Every
// sign in starts a poll bound to that session's epoch; sign out, expiry and
// context cancellation stop it and reset the count to zero.
type UnreadCounter struct {
	backend  Backend
	session  Session
	poller   *polling.Synchronizer
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger

	count   atomic.Int64
	updated atomic.Int64 // unix nanos of the last fetched count, 0 when reset

	mu     sync.Mutex
	ctx    context.Context
	handle *polling.Handle
	epoch  uint64
}

func NewUnreadCounter(backend Backend, sess Session, poller *polling.Synchronizer, interval time.Duration, logger *zap.Logger) *UnreadCounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnreadCounter{
		backend:  backend,
		session:  sess,
		poller:   poller,
		clock:    poller.Clock(),
		interval: interval,
		logger:   logger.Named("unread"),
	}
}

// Run follows the session until ctx is done.
func (u *UnreadCounter) Run(ctx context.Context) error {
	u.mu.Lock()
	u.ctx = ctx
	u.mu.Unlock()

	unsubscribe := u.session.Subscribe(func(ev session.Event) {
		u.follow(ev.Status, ev.Epoch)
	})
	defer unsubscribe()

	snap := u.session.Snapshot()
	u.follow(snap.Status, snap.Epoch)

	<-ctx.Done()

	u.mu.Lock()
	u.ctx = nil
	u.stopLocked()
	u.mu.Unlock()
	return nil
}

// Count is the last polled unread count, 0 when signed out.
func (u *UnreadCounter) Count() int {
	return int(u.count.Load())
}

// Current is the count shown by the navbar badge. The badge is read on its
// own schedule, so a count older than half the poll interval is refetched
// first; the shown value then lags the backend by at most about one
// interval. Fetch failures fall back to the polled count.
func (u *UnreadCounter) Current(ctx context.Context) int {
	if u.age() < u.interval/2 {
		return u.Count()
	}
	n, err := u.Refresh(ctx)
	if err != nil && !errors.Is(err, models.ErrNotAuthenticated) {
		u.logger.Debug("Badge refresh failed, showing polled count", zap.Error(err))
	}
	return n
}

// age is the time since the count was last fetched. A count never fetched
// is infinitely old.
func (u *UnreadCounter) age() time.Duration {
	at := u.updated.Load()
	if at == 0 {
		return time.Duration(math.MaxInt64)
	}
	return u.clock.Since(time.Unix(0, at))
}

// Refresh fetches the count now, e.g. right after marking notifications read.
func (u *UnreadCounter) Refresh(ctx context.Context) (int, error) {
	snap := u.session.Snapshot()
	if !snap.Status.HasIdentity() {
		return 0, models.ErrNotAuthenticated
	}
	if err := u.fetch(snap.Epoch)(ctx); err != nil {
		return u.Count(), err
	}
	return u.Count(), nil
}

// Active reports whether a poll is running.
func (u *UnreadCounter) Active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.handle != nil && u.handle.Active()
}

func (u *UnreadCounter) follow(status session.Status, epoch uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ctx == nil {
		return
	}

	if !status.HasIdentity() {
		u.stopLocked()
		return
	}
	if u.handle != nil && u.handle.Active() && u.epoch == epoch {
		return
	}

	u.stopLocked()
	u.epoch = epoch
	h, err := u.poller.Start(u.ctx, u.fetch(epoch), u.interval, u.eligible(epoch))
	if err != nil {
		if !errors.Is(err, polling.ErrNotEligible) {
			u.logger.Error("Failed to start unread poll", zap.Error(err))
		}
		return
	}
	u.handle = h
	u.logger.Debug("Unread poll started", zap.Uint64("epoch", epoch))
}

// stopLocked stops the running poll and clears the count. The caller holds mu.
func (u *UnreadCounter) stopLocked() {
	if u.handle != nil {
		u.handle.Stop()
		u.handle = nil
	}
	u.set(context.Background(), 0)
	u.updated.Store(0)
}

func (u *UnreadCounter) eligible(epoch uint64) polling.EligibilityFunc {
	return func() bool {
		snap := u.session.Snapshot()
		return snap.Epoch == epoch && snap.Status.HasIdentity()
	}
}

func (u *UnreadCounter) fetch(epoch uint64) polling.FetchFunc {
	return func(ctx context.Context) error {
		snap := u.session.Snapshot()
		if snap.Epoch != epoch || !snap.Status.HasIdentity() {
			return nil
		}
		n, err := u.backend.UnreadCount(ctx, snap.Token)
		if err != nil {
			if models.IsAuthenticationError(err) {
				// Expire publishes to subscribers, which stop this poll and
				// wait for it; it must not run on the poll goroutine.
				go u.session.Expire(epoch)
			}
			return err
		}
		if u.session.Snapshot().Epoch != epoch {
			return nil
		}
		u.set(ctx, n)
		return nil
	}
}

func (u *UnreadCounter) set(ctx context.Context, n int) {
	u.count.Store(int64(n))
	u.updated.Store(u.clock.Now().UnixNano())
	metrics.Get().UnreadNotifications.Record(ctx, int64(n))
}
