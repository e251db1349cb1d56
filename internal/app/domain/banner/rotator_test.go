package banner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/polling"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

type fakeBackend struct {
	banners []models.AdBanner
	err     error
	calls   atomic.Int32
}

func (f *fakeBackend) AdBanners(context.Context) ([]models.AdBanner, error) {
	f.calls.Add(1)
	return f.banners, f.err
}

func threeBanners() []models.AdBanner {
	return []models.AdBanner{
		{ID: "a", Title: "Cours du soir", Text: "Inscriptions ouvertes", IsActive: true},
		{ID: "b", Title: "Librairie Clairafrique", Text: "-10% sur les annales", Phone: "+221 33 000 00 00", IsActive: true},
		{ID: "c", Title: "Prépa BAC", Text: "Stage intensif", Link: "https://example.com/bac", IsActive: true},
	}
}

func newRotator(backend Backend, clock clockwork.Clock) *Rotator {
	return NewRotator(backend, cache.NewUnifiedCache[[]models.AdBanner](cache.BannersTTL, "banners", nil),
		polling.New("banner", clock, nil), 5*time.Second, nil)
}

func run(t *testing.T, r *Rotator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRotator_Sequence(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newRotator(&fakeBackend{banners: threeBanners()}, clock)
	run(t, r)
	require.Eventually(t, r.Rotating, 2*time.Second, 5*time.Millisecond)

	seen := []int{r.Index()}
	for _, want := range []int{1, 2, 0, 1} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		cancel()
		clock.Advance(5 * time.Second)
		require.Eventually(t, func() bool { return r.Index() == want }, 2*time.Second, 5*time.Millisecond)
		seen = append(seen, r.Index())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1}, seen)
}

func TestRotator_NoBannersNoRotation(t *testing.T) {
	backend := &fakeBackend{}
	r := newRotator(backend, clockwork.NewFakeClock())
	run(t, r)

	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Never(t, r.Rotating, 100*time.Millisecond, 10*time.Millisecond)

	b, _, total := r.Current(context.Background())
	assert.Nil(t, b)
	assert.Zero(t, total)
}

func TestRotator_CachesList(t *testing.T) {
	backend := &fakeBackend{banners: threeBanners()}
	r := newRotator(backend, clockwork.NewFakeClock())

	for range 3 {
		b, idx, total := r.Current(context.Background())
		require.NotNil(t, b)
		assert.Equal(t, "a", b.ID)
		assert.Equal(t, 0, idx)
		assert.Equal(t, 3, total)
	}
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestRotator_LoadFailureKeepsSlotEmpty(t *testing.T) {
	backend := &fakeBackend{err: &models.NetworkError{Op: "banners.list", Err: errors.New("connection refused")}}
	r := newRotator(backend, clockwork.NewFakeClock())

	b, _, _ := r.Current(context.Background())
	assert.Nil(t, b)

	backend.err = nil
	backend.banners = threeBanners()
	b, _, total := r.Current(context.Background())
	require.NotNil(t, b)
	assert.Equal(t, 3, total)
}

func TestHandlers_Banner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(domain.NewBaseHandler(nil, nil, nil), newRotator(&fakeBackend{banners: threeBanners()}, clockwork.NewFakeClock()))
	r := gin.New()
	r.GET("/partials/banner", h.Banner)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partials/banner", nil))
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Cours du soir", doc.Find(`[data-testid="ad-banner-title"]`).Text())
	assert.Equal(t, 3, doc.Find("[data-dot]").Length())
}
