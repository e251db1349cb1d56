package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

const (
	loginTarget    = "#login-response"
	registerTarget = "#register-response"
	branchesKey    = "all"
)

// Session is the write side of the session manager used by the auth pages.
type Session interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout()
}

// Curriculum lists the branches and levels offered at registration.
type Curriculum interface {
	Branches(ctx context.Context) ([]models.Branch, error)
	Levels(ctx context.Context, branchID string) ([]models.Level, error)
}

type AuthHandlers struct {
	*domain.BaseHandler
	session    Session
	curriculum Curriculum
	caches     *cache.CacheManager
}

func NewAuthHandlers(base *domain.BaseHandler, session Session, curriculum Curriculum, caches *cache.CacheManager) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler: base,
		session:     session,
		curriculum:  curriculum,
		caches:      caches,
	}
}

func (h *AuthHandlers) ShowLoginPage(c *gin.Context) {
	if middleware.GetUserFromContext(c) != nil {
		domain.Redirect(c, "/dashboard")
		return
	}
	h.RenderPage(c, "Login", "Login", components.LoginPage(middleware.GetLanguage(c), c.Query("email")))
}

func (h *AuthHandlers) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	user, err := h.session.Login(c.Request.Context(), email, password)
	if err != nil {
		h.authFailure(c, err, loginTarget, "Invalid email or password")
		return
	}

	h.Logger.Info("User signed in", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	domain.Redirect(c, "/dashboard")
}

func (h *AuthHandlers) ShowRegisterPage(c *gin.Context) {
	if middleware.GetUserFromContext(c) != nil {
		domain.Redirect(c, "/dashboard")
		return
	}
	lang := middleware.GetLanguage(c)
	req := models.RegisterRequest{Role: models.RoleStudent}
	h.RenderPage(c, "Register", "Register", components.RegisterPage(lang, req, h.branches(c.Request.Context()), nil))
}

func (h *AuthHandlers) Register(c *gin.Context) {
	req := models.RegisterRequest{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Role:     models.Role(c.PostForm("role")),
		BranchID: c.PostForm("branch_id"),
		LevelID:  c.PostForm("level_id"),
		Filiere:  strings.TrimSpace(c.PostForm("filiere")),
	}

	user, err := h.session.Register(c.Request.Context(), req)
	if err != nil {
		var regErr *models.RegistrationError
		if errors.As(err, &regErr) {
			h.Logger.Info("Registration rejected", zap.String("email", req.Email), zap.Int("fields", len(regErr.Fields)))
			if domain.IsHTMX(c) {
				c.Header("HX-Retarget", registerTarget)
				c.Header("HX-Reswap", "innerHTML")
			}
			status := regErr.Status
			if status == 0 {
				status = http.StatusBadRequest
			}
			h.Render(c, status, components.RegistrationAlert(middleware.GetLanguage(c), regErr))
			return
		}
		h.authFailure(c, err, registerTarget, "Registration failed")
		return
	}

	h.Logger.Info("User registered", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	domain.Redirect(c, "/dashboard")
}

// Logout always succeeds and sends the browser home.
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.session.Logout()
	domain.Redirect(c, "/")
}

// LevelOptions answers the branch select with the levels of that branch.
func (h *AuthHandlers) LevelOptions(c *gin.Context) {
	lang := middleware.GetLanguage(c)
	branchID := c.Query("branch_id")
	var levels []models.Level
	if branchID != "" {
		levels = h.levels(c.Request.Context(), branchID)
	}
	h.Render(c, http.StatusOK, components.LevelOptions(lang, levels, ""))
}

// authFailure renders the alert for a failed login or registration.
func (h *AuthHandlers) authFailure(c *gin.Context, err error, target, fallback string) {
	var authErr *models.AuthenticationError
	switch {
	case models.IsNetworkError(err):
		h.Logger.Warn("Backend unreachable during authentication", zap.Error(err))
		h.RenderAlert(c, http.StatusServiceUnavailable, target, components.AlertError,
			"Unable to reach the server. Please try again.")
	case errors.As(err, &authErr):
		msg := authErr.Message
		if msg == "" {
			msg = fallback
		}
		h.RenderAlert(c, http.StatusUnauthorized, target, components.AlertError, msg)
	case errors.Is(err, models.ErrSessionSuperseded):
		h.RenderAlert(c, http.StatusConflict, target, components.AlertError, "Something went wrong")
	default:
		h.Logger.Error("Authentication failed unexpectedly", zap.Error(err))
		h.RenderAlert(c, http.StatusBadGateway, target, components.AlertError, fallback)
	}
}

func (h *AuthHandlers) branches(ctx context.Context) []models.Branch {
	branches, err := h.caches.Branches.GetOrLoad(branchesKey, func() ([]models.Branch, error) {
		return h.curriculum.Branches(ctx)
	})
	if err != nil {
		h.Logger.Warn("Failed to load branches", zap.Error(err))
		return nil
	}
	return branches
}

func (h *AuthHandlers) levels(ctx context.Context, branchID string) []models.Level {
	levels, err := h.caches.Levels.GetOrLoad(branchID, func() ([]models.Level, error) {
		return h.curriculum.Levels(ctx, branchID)
	})
	if err != nil {
		h.Logger.Warn("Failed to load levels", zap.String("branchID", branchID), zap.Error(err))
		return nil
	}
	return levels
}
