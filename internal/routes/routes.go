package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/auth"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/banner"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/forum"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/home"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/notifications"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/profiles"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/settings"
	"github.com/kaayjang/kaayjang-web/internal/app/domain/statistics"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/services/backend"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

// Dependencies are the long lived services the handlers share. The unread
// counter and the banner rotator are run by the server; the handlers only
// read from them.
type Dependencies struct {
	Backend *backend.Client
	Session *session.Manager
	Caches  *cache.CacheManager
	Unread  *notifications.UnreadCounter
	Banners *banner.Rotator
}

type AppHandlers struct {
	Home          *home.HomeHandlers
	Auth          *auth.AuthHandlers
	Profiles      *profiles.ProfilesHandler
	Dashboard     *statistics.DashboardHandlers
	Notifications *notifications.Handlers
	Banner        *banner.Handlers
	Forum         *forum.ForumHandlers
	Settings      *settings.SettingsHandlers
}

func Setup(r *gin.Engine, deps Dependencies, log *zap.Logger) {
	handlers := setupDependencies(deps, log)
	setupRouter(r, handlers, deps)
}

func setupDependencies(deps Dependencies, log *zap.Logger) *AppHandlers {
	baseHandler := domain.NewBaseHandler(log, deps.Session, deps.Unread)
	statsService := statistics.NewService(deps.Backend, log.Named("statistics"))

	return &AppHandlers{
		Home:          home.NewHomeHandlers(baseHandler),
		Auth:          auth.NewAuthHandlers(baseHandler, deps.Session, deps.Backend, deps.Caches),
		Profiles:      profiles.NewProfilesHandler(baseHandler, deps.Backend, deps.Session),
		Dashboard:     statistics.NewDashboardHandlers(baseHandler, statsService, deps.Session),
		Notifications: notifications.NewHandlers(baseHandler, deps.Backend, deps.Backend, deps.Session, deps.Unread),
		Banner:        banner.NewHandlers(baseHandler, deps.Banners),
		Forum:         forum.NewForumHandlers(baseHandler, deps.Backend, deps.Caches, deps.Session),
		Settings:      settings.NewSettingsHandlers(baseHandler),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, deps Dependencies) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"session": deps.Session.Status().String(),
		})
	})

	public := r.Group("/")
	{
		public.GET("/", h.Home.ShowHomePage)
		public.GET("/login", h.Auth.ShowLoginPage)
		public.POST("/login", h.Auth.Login)
		public.GET("/register", h.Auth.ShowRegisterPage)
		public.POST("/register", h.Auth.Register)
		public.POST("/logout", h.Auth.Logout)
		public.POST("/language", h.Settings.UpdateLanguage)
	}

	partials := r.Group("/partials")
	{
		partials.GET("/levels", h.Auth.LevelOptions)
		partials.GET("/banner", h.Banner.Banner)
		partials.GET("/unread-badge", h.Notifications.UnreadBadge)
	}

	protected := r.Group("/")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/dashboard", h.Dashboard.ShowDashboard)
		protected.GET("/forum", h.Forum.ShowForum)

		protected.GET("/profile", h.Profiles.ShowOwnProfile)
		protected.POST("/profile", h.Profiles.UpdateProfile)
		protected.GET("/users/:id", h.Profiles.ShowUserProfile)
		protected.POST("/users/:id/follow", h.Profiles.Follow)
		protected.DELETE("/users/:id/follow", h.Profiles.Unfollow)

		protected.GET("/notifications", h.Notifications.ShowNotifications)
		protected.POST("/notifications/read-all", h.Notifications.MarkAllRead)
		protected.POST("/notifications/:id/read", h.Notifications.MarkRead)
		protected.GET("/notifications/settings", h.Notifications.ShowSettings)
		protected.POST("/notifications/settings", h.Notifications.UpdateSettings)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/pending-teachers", h.Dashboard.PendingTeachers)
		admin.POST("/teachers/:id/validate", h.Dashboard.ValidateTeacher)
	}
}
