package statistics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
)

const dashboardTarget = "#dashboard-response"

type TokenSource interface {
	Snapshot() session.Snapshot
}

type DashboardHandlers struct {
	*domain.BaseHandler
	service Service
	session TokenSource
}

func NewDashboardHandlers(base *domain.BaseHandler, service Service, session TokenSource) *DashboardHandlers {
	return &DashboardHandlers{BaseHandler: base, service: service, session: session}
}

// ShowDashboard renders the counters and assignments for the signed-in
// role. Both are fetched together; a part the backend fails to serve is
// left empty rather than failing the page.
func (h *DashboardHandlers) ShowDashboard(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		domain.Redirect(c, "/login")
		return
	}

	ctx, token := c.Request.Context(), h.session.Snapshot().Token
	var (
		stats               models.Stats
		assignments         []models.Assignment
		statsErr, assignErr error
		g                   errgroup.Group
	)
	g.Go(func() error {
		stats, statsErr = h.service.GetDashboardStatistics(ctx, token, user.Role)
		return nil
	})
	g.Go(func() error {
		assignments, assignErr = h.service.GetAssignments(ctx, token, user.Role)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{statsErr, assignErr} {
		if models.IsAuthenticationError(err) {
			h.BackendFailure(c, err, dashboardTarget)
			return
		}
	}
	if statsErr != nil {
		stats = models.Stats{}
	}
	h.RenderPage(c, "Dashboard", "Dashboard", components.DashboardPage(middleware.GetLanguage(c), user, stats, assignments))
}

// PendingTeachers is loaded into the admin dashboard.
func (h *DashboardHandlers) PendingTeachers(c *gin.Context) {
	teachers, err := h.service.GetPendingTeachers(c.Request.Context(), h.session.Snapshot().Token)
	if err != nil {
		h.BackendFailure(c, err, "")
		return
	}
	h.Render(c, http.StatusOK, components.PendingTeachers(middleware.GetLanguage(c), teachers))
}

// ValidateTeacher replaces the pending row with a confirmation. On failure
// the row is kept and the alert goes above the list.
func (h *DashboardHandlers) ValidateTeacher(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.ValidateTeacher(c.Request.Context(), h.session.Snapshot().Token, id); err != nil {
		if models.IsAuthenticationError(err) {
			h.BackendFailure(c, err, dashboardTarget)
			return
		}
		h.Logger.Warn("Teacher validation failed", zap.String("teacherID", id), zap.Error(err))
		h.RenderAlert(c, http.StatusBadGateway, dashboardTarget, components.AlertError, "Teacher validation failed")
		return
	}
	h.Render(c, http.StatusOK, components.ValidatedTeacher(middleware.GetLanguage(c), id))
}
