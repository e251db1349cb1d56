package notifications

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
)

const (
	// unreadChangedEvent is the HX-Trigger the navbar badge listens to.
	unreadChangedEvent = "unread-changed"
	settingsTarget     = "#notification-settings-response"
)

// SettingsBackend reads and saves the notification preferences.
type SettingsBackend interface {
	NotificationSettings(ctx context.Context, token string) (*models.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, token string, settings models.NotificationSettings) (*models.NotificationSettings, error)
}

// TokenSource hands out the current bearer credential.
type TokenSource interface {
	Snapshot() session.Snapshot
}

type Handlers struct {
	*domain.BaseHandler
	backend  Backend
	settings SettingsBackend
	session  TokenSource
	counter  *UnreadCounter
}

func NewHandlers(base *domain.BaseHandler, backend Backend, settings SettingsBackend, sess TokenSource, counter *UnreadCounter) *Handlers {
	return &Handlers{BaseHandler: base, backend: backend, settings: settings, session: sess, counter: counter}
}

func (h *Handlers) ShowNotifications(c *gin.Context) {
	lang := middleware.GetLanguage(c)
	list, err := h.backend.Notifications(c.Request.Context(), h.session.Snapshot().Token)
	if err != nil {
		h.BackendFailure(c, err, "")
		return
	}
	h.RenderPage(c, "Notifications", "Notifications", components.NotificationsPage(lang, list))
}

func (h *Handlers) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	token := h.session.Snapshot().Token
	if err := h.backend.MarkNotificationRead(ctx, token, c.Param("id")); err != nil {
		h.BackendFailure(c, err, "#notifications-list")
		return
	}
	h.renderList(c, token)
}

// MarkAllRead marks every unread notification read, one call each.
func (h *Handlers) MarkAllRead(c *gin.Context) {
	ctx := c.Request.Context()
	token := h.session.Snapshot().Token
	list, err := h.backend.Notifications(ctx, token)
	if err != nil {
		h.BackendFailure(c, err, "#notifications-list")
		return
	}
	for _, n := range list {
		if n.Read {
			continue
		}
		if err := h.backend.MarkNotificationRead(ctx, token, n.ID); err != nil {
			h.BackendFailure(c, err, "#notifications-list")
			return
		}
	}
	h.renderList(c, token)
}

// UnreadBadge is polled by the navbar. Signed out visitors get an empty
// badge rather than a redirect.
func (h *Handlers) UnreadBadge(c *gin.Context) {
	count := 0
	if middleware.GetUserFromContext(c) != nil {
		count = h.counter.Current(c.Request.Context())
	}
	h.Render(c, http.StatusOK, components.UnreadBadge(count))
}

// ShowSettings is loaded into the notifications page.
func (h *Handlers) ShowSettings(c *gin.Context) {
	settings, err := h.settings.NotificationSettings(c.Request.Context(), h.session.Snapshot().Token)
	if err != nil {
		h.BackendFailure(c, err, settingsTarget)
		return
	}
	h.Render(c, http.StatusOK, components.NotificationSettingsForm(middleware.GetLanguage(c), *settings))
}

// UpdateSettings saves the submitted checkboxes. An unchecked box is absent
// from the form, so every switch is sent and missing ones are turned off.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	update := models.NotificationSettingsFromKeys(func(key string) bool {
		return c.PostForm(key) == "on"
	})
	saved, err := h.settings.UpdateNotificationSettings(c.Request.Context(), h.session.Snapshot().Token, update)
	if err != nil {
		if models.IsAuthenticationError(err) || models.IsNetworkError(err) {
			h.BackendFailure(c, err, settingsTarget)
			return
		}
		h.Logger.Warn("Notification settings rejected", zap.Error(err))
		h.RenderAlert(c, http.StatusBadGateway, settingsTarget, components.AlertError, "Could not save notification settings")
		return
	}
	h.Render(c, http.StatusOK, components.NotificationSettingsForm(middleware.GetLanguage(c), *saved))
}

func (h *Handlers) renderList(c *gin.Context, token string) {
	ctx := c.Request.Context()
	if _, err := h.counter.Refresh(ctx); err != nil {
		h.Logger.Warn("Failed to refresh unread count", zap.Error(err))
	}
	list, err := h.backend.Notifications(ctx, token)
	if err != nil {
		h.BackendFailure(c, err, "#notifications-list")
		return
	}
	c.Header("HX-Trigger", unreadChangedEvent)
	h.Render(c, http.StatusOK, components.NotificationList(middleware.GetLanguage(c), list))
}
