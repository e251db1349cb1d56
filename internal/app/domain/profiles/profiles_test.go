package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/storage"
)

// authBackend signs in anyone and answers /auth/me with me.
type authBackend struct {
	me    *models.User
	meErr error
}

func (a *authBackend) Me(context.Context, string) (*models.User, error) {
	return a.me.Clone(), a.meErr
}

func (a *authBackend) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{
		AccessToken: "tok",
		User:        &models.User{ID: "u1", Email: req.Email, Name: "Awa", Role: models.RoleStudent},
	}, nil
}

func (a *authBackend) Register(context.Context, models.RegisterRequest) (*models.AuthResponse, error) {
	return nil, errors.New("not used")
}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) UpdateMe(ctx context.Context, token string, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, token, update)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockBackend) User(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockBackend) Follow(ctx context.Context, token, userID string) error {
	return m.Called(ctx, token, userID).Error(0)
}

func (m *MockBackend) Unfollow(ctx context.Context, token, userID string) error {
	return m.Called(ctx, token, userID).Error(0)
}

func (m *MockBackend) IsFollowing(ctx context.Context, token, userID string) (bool, error) {
	args := m.Called(ctx, token, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) FollowCounts(ctx context.Context, userID string) (models.FollowCounts, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.FollowCounts), args.Error(1)
}

type fixture struct {
	router  *gin.Engine
	auth    *authBackend
	session *session.Manager
	backend *MockBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		auth:    &authBackend{me: &models.User{ID: "u1", Email: "awa@example.com", Name: "Awa Diop", Role: models.RoleStudent}},
		backend: &MockBackend{},
	}
	f.session = session.NewManager(f.auth, storage.NewMemoryStore(), nil)
	_, err := f.session.Login(context.Background(), "awa@example.com", "secret")
	require.NoError(t, err)

	h := NewProfilesHandler(domain.NewBaseHandler(nil, f.session, nil), f.backend, f.session)
	r := gin.New()
	r.Use(sessions.Sessions("kaayjang", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(middleware.SessionMiddleware(f.session), middleware.LanguageMiddleware())
	auth := r.Group("/", middleware.RequireAuth())
	auth.GET("/profile", h.ShowOwnProfile)
	auth.POST("/profile", h.UpdateProfile)
	auth.GET("/users/:id", h.ShowUserProfile)
	auth.POST("/users/:id/follow", h.Follow)
	auth.DELETE("/users/:id/follow", h.Unfollow)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("HX-Request", "true")
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return w, doc
}

func TestShowOwnProfile(t *testing.T) {
	f := newFixture(t)
	f.backend.On("FollowCounts", mock.Anything, "u1").Return(models.FollowCounts{Followers: 4, Following: 2}, nil)

	w, doc := f.do(t, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Awa Diop", doc.Find(`[data-testid="profile-name"]`).Text())
	assert.Equal(t, "4", doc.Find(`[data-testid="followers-count"]`).Text())
	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, "Awa Diop", f.session.User().Name, "revalidation refreshes the identity")
}

func TestShowOwnProfile_RejectedCredential(t *testing.T) {
	f := newFixture(t)
	f.auth.meErr = &models.AuthenticationError{Status: 401}

	w, _ := f.do(t, http.MethodGet, "/profile", nil)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))
	assert.Equal(t, session.StatusAnonymous, f.session.Status())
}

func TestShowOwnProfile_BackendDownShowsCachedIdentity(t *testing.T) {
	f := newFixture(t)
	f.auth.meErr = &models.NetworkError{Op: "auth.me", Err: errors.New("timeout")}
	f.backend.On("FollowCounts", mock.Anything, "u1").Return(models.FollowCounts{}, &models.NetworkError{Op: "follows.count"})

	w, doc := f.do(t, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Awa", doc.Find(`[data-testid="profile-name"]`).Text())
	assert.True(t, f.session.IsAuthenticated())
}

func TestUpdateProfile(t *testing.T) {
	t.Run("success merges into the session", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("UpdateMe", mock.Anything, "tok", mock.MatchedBy(func(u models.ProfileUpdate) bool {
			return u.Name != nil && *u.Name == "Awa N." && u.Bio != nil && *u.Bio == "Élève en terminale" && u.AvatarURL == nil
		})).Return(&models.User{ID: "u1", Name: "Awa N."}, nil)

		w, doc := f.do(t, http.MethodPost, "/profile", url.Values{"name": {" Awa N. "}, "bio": {"Élève en terminale"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(components.AlertSuccess), doc.Find("[data-alert]").AttrOr("data-alert", ""))
		assert.Equal(t, "Awa N.", f.session.User().Name)
		assert.Equal(t, "Élève en terminale", f.session.User().Bio)
		f.backend.AssertExpectations(t)
	})

	t.Run("empty name is rejected locally", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodPost, "/profile", url.Values{"name": {"  "}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.backend.AssertNotCalled(t, "UpdateMe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("backend rejection keeps the identity", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("UpdateMe", mock.Anything, "tok", mock.Anything).Return(nil, &models.APIError{Status: 422, Message: "bad"})

		w, doc := f.do(t, http.MethodPost, "/profile", url.Values{"name": {"X"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, profileTarget, w.Header().Get("HX-Retarget"))
		assert.Contains(t, doc.Text(), "Could not update profile")
		assert.Equal(t, "Awa", f.session.User().Name)
	})
}

func TestUpdateProfile_AccountSwitchedMidRequest(t *testing.T) {
	f := newFixture(t)
	f.backend.On("UpdateMe", mock.Anything, "tok", mock.Anything).
		Run(func(mock.Arguments) {
			f.session.Logout()
			_, err := f.session.Login(context.Background(), "bob@example.com", "secret")
			require.NoError(t, err)
		}).
		Return(&models.User{ID: "u1", Name: "Awa Renamed"}, nil)

	w, doc := f.do(t, http.MethodPost, "/profile", url.Values{"name": {"Awa Renamed"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, doc.Text(), "Session changed, profile not saved")
	assert.Equal(t, "bob@example.com", f.session.User().Email)
	assert.Equal(t, "Awa", f.session.User().Name, "the edit never reaches the new identity")
}

func TestShowUserProfile(t *testing.T) {
	f := newFixture(t)
	f.backend.On("User", mock.Anything, "t9").Return(&models.User{ID: "t9", Name: "M. Ndiaye", Role: models.RoleTeacher, Bio: "Maths"}, nil)
	f.backend.On("IsFollowing", mock.Anything, "tok", "t9").Return(true, nil)
	f.backend.On("FollowCounts", mock.Anything, "t9").Return(models.FollowCounts{Followers: 12}, nil)
	f.backend.On("User", mock.Anything, "missing").Return(nil, &models.APIError{Status: 404, Message: "User not found"})

	w, doc := f.do(t, http.MethodGet, "/users/t9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", doc.Find("#follow-button").AttrOr("data-following", ""))
	assert.Equal(t, 0, doc.Find("#profile-form").Length())

	w, _ = f.do(t, http.MethodGet, "/users/u1", nil)
	assert.Equal(t, "/profile", w.Header().Get("HX-Redirect"))

	w, _ = f.do(t, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowToggle(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Follow", mock.Anything, "tok", "t9").Return(nil)
	f.backend.On("Unfollow", mock.Anything, "tok", "t9").Return(&models.APIError{Status: 404, Message: "Not following"})

	w, doc := f.do(t, http.MethodPost, "/users/t9/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", doc.Find("#follow-button").AttrOr("data-following", ""))
	assert.Equal(t, "/users/t9/follow", doc.Find("#follow-button").AttrOr("hx-delete", ""))

	w, doc = f.do(t, http.MethodDelete, "/users/t9/follow", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, profileTarget, w.Header().Get("HX-Retarget"))
	assert.Contains(t, doc.Text(), "Could not update follow status")
	assert.True(t, f.session.IsAuthenticated())
}
