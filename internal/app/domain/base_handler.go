package domain

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/i18n"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
)

// UnreadSource provides the navbar badge count.
type UnreadSource interface {
	Count() int
}

// Expirer ends a session whose credential the backend rejected.
type Expirer interface {
	Expire(epoch uint64) bool
}

type BaseHandler struct {
	Logger  *zap.Logger
	Session Expirer
	Unread  UnreadSource
}

func NewBaseHandler(logger *zap.Logger, session Expirer, unread UnreadSource) *BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseHandler{Logger: logger, Session: session, Unread: unread}
}

func (h *BaseHandler) newLayoutData(c *gin.Context, title, activeNav string, content templ.Component) models.LayoutTempl {
	user := middleware.GetUserFromContext(c)
	data := models.LayoutTempl{
		Title:     title,
		Lang:      middleware.GetLanguage(c),
		Content:   content,
		Nav:       models.OfflineNav,
		ActiveNav: activeNav,
		User:      user,
	}
	if user != nil {
		data.Nav = models.MainNav
		if h.Unread != nil {
			data.UnreadCount = h.Unread.Count()
		}
	}
	return data
}

// Render writes component with status, timing the render.
func (h *BaseHandler) Render(c *gin.Context, status int, component templ.Component) {
	start := time.Now()
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.Logger.Error("Failed to render component", zap.String("path", c.FullPath()), zap.Error(err))
	}
	metrics.Get().TemplateRenderDuration.Record(c.Request.Context(), time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("route", c.FullPath())))
}

// RenderPage renders content alone for HTMX requests and inside the layout
// otherwise.
func (h *BaseHandler) RenderPage(c *gin.Context, title, activeNav string, content templ.Component) {
	if IsHTMX(c) {
		h.Render(c, http.StatusOK, content)
		return
	}
	h.Render(c, http.StatusOK, components.Layout(h.newLayoutData(c, title, activeNav, content)))
}

// RenderAlert answers a form action with an inline banner. For HTMX
// requests target retargets the swap, e.g. "#login-response".
func (h *BaseHandler) RenderAlert(c *gin.Context, status int, target string, typ components.AlertType, message string) {
	if target != "" && IsHTMX(c) {
		c.Header("HX-Retarget", target)
		c.Header("HX-Reswap", "innerHTML")
	}
	h.Render(c, status, components.Alert(components.AlertProps{
		ID:      string(typ) + "-alert",
		Type:    typ,
		Message: i18n.Text(middleware.GetLanguage(c), message),
	}))
}

// BackendFailure answers a failed backend call made on behalf of the
// signed-in user. A rejected credential ends the session seen by this
// request and sends the user to the login page; anything else becomes an
// alert swapped into target.
func (h *BaseHandler) BackendFailure(c *gin.Context, err error, target string) {
	if models.IsAuthenticationError(err) {
		if h.Session != nil && h.Session.Expire(middleware.GetEpochFromContext(c)) {
			h.Logger.Info("Backend rejected the session credential", zap.String("path", c.FullPath()))
		}
		Redirect(c, "/login")
		return
	}

	status, msg := http.StatusBadGateway, "Something went wrong"
	if models.IsNetworkError(err) {
		status, msg = http.StatusServiceUnavailable, "Unable to reach the server. Please try again."
	}
	h.Logger.Warn("Backend call failed", zap.String("path", c.FullPath()), zap.Error(err))
	h.RenderAlert(c, status, target, components.AlertError, msg)
}

// Redirect navigates the browser to url, via HX-Redirect for HTMX requests.
func Redirect(c *gin.Context, url string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", url)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
