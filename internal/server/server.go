package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kaayjang/kaayjang-web/internal/app/domain/banner"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/notifications"
	"github.com/kaayjang/kaayjang-web/internal/app/polling"
	"github.com/kaayjang/kaayjang-web/internal/app/services/backend"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
	"github.com/kaayjang/kaayjang-web/internal/pkg/config"
	"github.com/kaayjang/kaayjang-web/internal/pkg/storage"
	"github.com/kaayjang/kaayjang-web/internal/routes"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	deps   routes.Dependencies
	router http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	store, err := s.setupStore()
	if err != nil {
		return nil, fmt.Errorf("failed to setup session store: %w", err)
	}

	clock := clockwork.NewRealClock()
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	caches := cache.NewCacheManager(logger)
	sess := session.NewManager(client, store, logger, session.WithClock(clock))

	s.deps = routes.Dependencies{
		Backend: client,
		Session: sess,
		Caches:  caches,
		Unread: notifications.NewUnreadCounter(client, sess,
			polling.New("unread", clock, logger), cfg.Polling.UnreadInterval, logger),
		Banners: banner.NewRotator(client, caches.Banners,
			polling.New("banner", clock, logger), cfg.Polling.BannerInterval, logger),
	}

	return s, nil
}

// setupStore opens the store the session credential is persisted in.
func (s *Server) setupStore() (storage.Store, error) {
	if s.cfg.State.Backend == "memory" {
		s.logger.Warn("Session state is kept in memory and will not survive a restart")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewFileStore(s.cfg.State.Path, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Session state file", zap.String("path", store.Path()))
	return store, nil
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr(),
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Dependencies returns the services shared by the handlers
func (s *Server) Dependencies() routes.Dependencies {
	return s.deps
}

// Run restores the persisted session, then serves HTTP and runs the
// background polls until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.deps.Session.Initialize(ctx)

	httpServer := s.HTTPServer()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server starting", zap.String("addr", s.cfg.ListenAddr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return GracefulShutdown(ctx, httpServer, s.logger)
	})
	g.Go(func() error {
		return s.deps.Unread.Run(ctx)
	})
	g.Go(func() error {
		return s.deps.Banners.Run(ctx)
	})

	if addr := s.cfg.Observability.PprofAddr; addr != "" {
		pprofServer := StartPprofServer(addr, s.deps.Caches, s.logger)
		g.Go(func() error {
			<-ctx.Done()
			return pprofServer.Close()
		})
	}

	return g.Wait()
}
