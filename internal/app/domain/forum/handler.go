// Package forum lists discussion topics, optionally filtered by curriculum.
package forum

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/services/backend"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

const (
	forumTarget = "#forum-response"
	allKey      = "all"
)

type Backend interface {
	Topics(ctx context.Context, token string, filter backend.TopicFilter) ([]models.Topic, error)
	Branches(ctx context.Context) ([]models.Branch, error)
	Levels(ctx context.Context, branchID string) ([]models.Level, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
}

type TokenSource interface {
	Snapshot() session.Snapshot
}

type ForumHandlers struct {
	*domain.BaseHandler
	backend Backend
	caches  *cache.CacheManager
	session TokenSource
}

func NewForumHandlers(base *domain.BaseHandler, backend Backend, caches *cache.CacheManager, session TokenSource) *ForumHandlers {
	return &ForumHandlers{BaseHandler: base, backend: backend, caches: caches, session: session}
}

// ShowForum lists topics under the filter form. The branch_id, level_id and
// subject_id query parameters are passed through as filters; a level that
// does not belong to the selected branch is dropped, so changing the branch
// resets the level.
func (h *ForumHandlers) ShowForum(c *gin.Context) {
	ctx := c.Request.Context()
	view := components.ForumView{
		Lang: middleware.GetLanguage(c),
		Filter: components.ForumFilter{
			BranchID:  c.Query("branch_id"),
			LevelID:   c.Query("level_id"),
			SubjectID: c.Query("subject_id"),
		},
	}

	view.Branches = loadOptions(h.Logger, h.caches.Branches, allKey, func() ([]models.Branch, error) {
		return h.backend.Branches(ctx)
	})
	view.Subjects = loadOptions(h.Logger, h.caches.Subjects, allKey, func() ([]models.Subject, error) {
		return h.backend.Subjects(ctx)
	})
	if branchID := view.Filter.BranchID; branchID != "" {
		view.Levels = loadOptions(h.Logger, h.caches.Levels, branchID, func() ([]models.Level, error) {
			return h.backend.Levels(ctx, branchID)
		})
	}
	if !slices.ContainsFunc(view.Levels, func(l models.Level) bool { return l.ID == view.Filter.LevelID }) {
		view.Filter.LevelID = ""
	}

	topics, err := h.backend.Topics(ctx, h.session.Snapshot().Token, backend.TopicFilter{
		BranchID:  view.Filter.BranchID,
		LevelID:   view.Filter.LevelID,
		SubjectID: view.Filter.SubjectID,
	})
	if err != nil {
		h.BackendFailure(c, err, forumTarget)
		return
	}
	view.Topics = topics
	h.RenderPage(c, "Forum", "Forum", components.ForumPage(view))
}

// loadOptions reads a filter option list through its cache. A failure
// leaves that select with only the "all" option.
func loadOptions[T any](logger *zap.Logger, c *cache.UnifiedCache[[]T], key string, fetch func() ([]T, error)) []T {
	v, err := c.GetOrLoad(key, fetch)
	if err != nil {
		logger.Warn("Failed to load forum filter options", zap.String("key", key), zap.Error(err))
		return nil
	}
	return v
}
