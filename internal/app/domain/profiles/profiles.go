package profiles

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
	"github.com/kaayjang/kaayjang-web/internal/app/session"
)

const profileTarget = "#profile-response"

// Backend is the part of the REST client used by the profile pages.
type Backend interface {
	UpdateMe(ctx context.Context, token string, update models.ProfileUpdate) (*models.User, error)
	User(ctx context.Context, id string) (*models.User, error)
	Follow(ctx context.Context, token, userID string) error
	Unfollow(ctx context.Context, token, userID string) error
	IsFollowing(ctx context.Context, token, userID string) (bool, error)
	FollowCounts(ctx context.Context, userID string) (models.FollowCounts, error)
}

type Session interface {
	Snapshot() session.Snapshot
	Revalidate(ctx context.Context) error
	UpdateIdentity(epoch uint64, update models.ProfileUpdate) (*models.User, error)
}

type ProfilesHandler struct {
	*domain.BaseHandler
	backend Backend
	session Session
}

func NewProfilesHandler(base *domain.BaseHandler, backend Backend, session Session) *ProfilesHandler {
	return &ProfilesHandler{BaseHandler: base, backend: backend, session: session}
}

// ShowOwnProfile refreshes the identity from the backend before rendering.
// When the backend cannot be reached the cached identity is shown.
func (h *ProfilesHandler) ShowOwnProfile(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.session.Revalidate(ctx); err != nil {
		if models.IsAuthenticationError(err) || errors.Is(err, models.ErrNotAuthenticated) {
			domain.Redirect(c, "/login")
			return
		}
		h.Logger.Warn("Showing cached identity", zap.Error(err))
	}

	user := h.session.Snapshot().User
	if user == nil {
		domain.Redirect(c, "/login")
		return
	}
	h.RenderPage(c, "Profile", "Profile", components.ProfilePage(components.ProfileView{
		Lang:   middleware.GetLanguage(c),
		User:   user,
		Own:    true,
		Counts: h.counts(ctx, user.ID),
	}))
}

// UpdateProfile saves the submitted fields on the backend and then merges
// them into the local identity.
func (h *ProfilesHandler) UpdateProfile(c *gin.Context) {
	update := profileUpdateFromForm(c)
	if update.Name != nil && *update.Name == "" {
		h.RenderAlert(c, http.StatusBadRequest, profileTarget, components.AlertError, "Name is required")
		return
	}

	snap := h.session.Snapshot()
	if _, err := h.backend.UpdateMe(c.Request.Context(), snap.Token, update); err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) {
			h.Logger.Info("Profile update rejected", zap.Int("status", apiErr.Status), zap.String("detail", apiErr.Message))
			h.RenderAlert(c, http.StatusBadRequest, profileTarget, components.AlertError, "Could not update profile")
			return
		}
		h.BackendFailure(c, err, profileTarget)
		return
	}

	if _, err := h.session.UpdateIdentity(snap.Epoch, update); err != nil {
		if errors.Is(err, models.ErrSessionSuperseded) {
			h.Logger.Info("Profile update dropped, session changed hands", zap.Uint64("epoch", snap.Epoch))
			h.RenderAlert(c, http.StatusConflict, profileTarget, components.AlertError, "Session changed, profile not saved")
			return
		}
		// Signed out while the request was in flight.
		domain.Redirect(c, "/login")
		return
	}
	h.RenderAlert(c, http.StatusOK, profileTarget, components.AlertSuccess, "Profile updated")
}

// ShowUserProfile shows another user's public profile with a follow toggle.
func (h *ProfilesHandler) ShowUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	me := middleware.GetUserFromContext(c)
	if me != nil && me.ID == id {
		domain.Redirect(c, "/profile")
		return
	}

	user, err := h.backend.User(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.RenderAlert(c, http.StatusNotFound, "", components.AlertError, "User not found")
			return
		}
		h.BackendFailure(c, err, "")
		return
	}

	following, err := h.backend.IsFollowing(ctx, h.session.Snapshot().Token, id)
	if err != nil {
		h.Logger.Warn("Failed to load follow status", zap.String("userID", id), zap.Error(err))
	}

	h.RenderPage(c, user.Name, "", components.ProfilePage(components.ProfileView{
		Lang:      middleware.GetLanguage(c),
		User:      user,
		Following: following,
		Counts:    h.counts(ctx, id),
	}))
}

func (h *ProfilesHandler) Follow(c *gin.Context) {
	h.toggleFollow(c, true)
}

func (h *ProfilesHandler) Unfollow(c *gin.Context) {
	h.toggleFollow(c, false)
}

// toggleFollow answers with the new button. Failures leave the button as it
// was and show an alert next to it.
func (h *ProfilesHandler) toggleFollow(c *gin.Context, follow bool) {
	ctx := c.Request.Context()
	id := c.Param("id")
	token := h.session.Snapshot().Token

	var err error
	if follow {
		err = h.backend.Follow(ctx, token, id)
	} else {
		err = h.backend.Unfollow(ctx, token, id)
	}
	if err != nil {
		if models.IsAuthenticationError(err) {
			h.BackendFailure(c, err, profileTarget)
			return
		}
		h.Logger.Warn("Follow toggle failed", zap.String("userID", id), zap.Bool("follow", follow), zap.Error(err))
		h.RenderAlert(c, http.StatusBadGateway, profileTarget, components.AlertError, "Could not update follow status")
		return
	}
	h.Render(c, http.StatusOK, components.FollowButton(middleware.GetLanguage(c), id, follow))
}

func (h *ProfilesHandler) counts(ctx context.Context, userID string) models.FollowCounts {
	counts, err := h.backend.FollowCounts(ctx, userID)
	if err != nil {
		h.Logger.Warn("Failed to load follow counts", zap.String("userID", userID), zap.Error(err))
	}
	return counts
}

// profileUpdateFromForm keeps only the submitted fields so that absent
// inputs leave the stored values untouched.
func profileUpdateFromForm(c *gin.Context) models.ProfileUpdate {
	get := func(key string) *string {
		v, ok := c.GetPostForm(key)
		if !ok {
			return nil
		}
		v = strings.TrimSpace(v)
		return &v
	}
	return models.ProfileUpdate{
		Name:          get("name"),
		AvatarURL:     get("avatar_url"),
		Bio:           get("bio"),
		Establishment: get("establishment"),
		Objectives:    get("objectives"),
		BranchID:      get("branch_id"),
		LevelID:       get("level_id"),
		Filiere:       get("filiere"),
	}
}
