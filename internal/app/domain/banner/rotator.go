// Package banner rotates the promotional banners shown above every page.
package banner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/polling"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

const cacheKey = "active"

type Backend interface {
	AdBanners(ctx context.Context) ([]models.AdBanner, error)
}

// Rotator advances the visible banner every interval. Advancing is purely
// local; the list comes from the backend through a cache and is reloaded
// only once the cached copy expires.
type Rotator struct {
	backend  Backend
	cache    *cache.UnifiedCache[[]models.AdBanner]
	poller   *polling.Synchronizer
	interval time.Duration
	logger   *zap.Logger

	startMu sync.Mutex

	mu      sync.Mutex
	banners []models.AdBanner
	current int
	ctx     context.Context
	handle  *polling.Handle
}

func NewRotator(backend Backend, c *cache.UnifiedCache[[]models.AdBanner], poller *polling.Synchronizer, interval time.Duration, logger *zap.Logger) *Rotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rotator{
		backend:  backend,
		cache:    c,
		poller:   poller,
		interval: interval,
		logger:   logger.Named("banner"),
	}
}

// Run loads the banners and rotates them until ctx is done.
func (r *Rotator) Run(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	r.refresh(ctx)
	r.ensureRotating()

	<-ctx.Done()

	r.mu.Lock()
	r.ctx = nil
	h := r.handle
	r.handle = nil
	r.mu.Unlock()
	if h != nil {
		h.Stop()
	}
	return nil
}

// Current returns the visible banner, its index and the number of banners.
// The banner is nil when there is nothing to show.
func (r *Rotator) Current(ctx context.Context) (*models.AdBanner, int, int) {
	r.refresh(ctx)
	r.ensureRotating()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.banners) == 0 {
		return nil, 0, 0
	}
	b := r.banners[r.current]
	return &b, r.current, len(r.banners)
}

// Index is the position of the visible banner.
func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Rotating reports whether the rotation poll is running.
func (r *Rotator) Rotating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle != nil && r.handle.Active()
}

// refresh reloads the list when the cached copy is gone. A failed load keeps
// the current list.
func (r *Rotator) refresh(ctx context.Context) {
	if _, ok := r.cache.Get(cacheKey); ok {
		return
	}
	banners, err := r.backend.AdBanners(ctx)
	if err != nil {
		r.logger.Warn("Failed to load banners", zap.Error(err))
		return
	}
	// The backend only returns active banners.
	r.cache.Set(cacheKey, banners)

	r.mu.Lock()
	r.banners = banners
	if r.current >= len(banners) {
		r.current = 0
	}
	r.mu.Unlock()
	r.logger.Debug("Banners loaded", zap.Int("count", len(banners)))
}

func (r *Rotator) ensureRotating() {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.mu.Lock()
	ctx := r.ctx
	running := r.handle != nil && r.handle.Active()
	r.mu.Unlock()
	if ctx == nil || running {
		return
	}

	h, err := r.poller.Start(ctx, r.advance, r.interval, r.eligible, polling.Deferred())
	if err != nil {
		if !errors.Is(err, polling.ErrNotEligible) {
			r.logger.Error("Failed to start banner rotation", zap.Error(err))
		}
		return
	}
	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()
}

func (r *Rotator) advance(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.banners); n > 0 {
		r.current = (r.current + 1) % n
	}
	return nil
}

// eligible is read by the poll goroutine. It must not be called with mu held.
func (r *Rotator) eligible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.banners) > 0
}
