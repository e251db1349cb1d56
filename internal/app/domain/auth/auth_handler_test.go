package auth

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

	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

type MockSession struct {
	mock.Mock
	snapshot session.Snapshot
}

func (m *MockSession) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockSession) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockSession) Logout() { m.Called() }

func (m *MockSession) Snapshot() session.Snapshot { return m.snapshot }

type MockCurriculum struct {
	mock.Mock
}

func (m *MockCurriculum) Branches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]models.Branch)
	return b, args.Error(1)
}

func (m *MockCurriculum) Levels(ctx context.Context, branchID string) ([]models.Level, error) {
	args := m.Called(ctx, branchID)
	l, _ := args.Get(0).([]models.Level)
	return l, args.Error(1)
}

func newRouter(sess *MockSession, curriculum *MockCurriculum) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandlers(domain.NewBaseHandler(nil, nil, nil), sess, curriculum, cache.NewCacheManager(nil))

	r := gin.New()
	r.Use(sessions.Sessions("kaayjang", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(middleware.SessionMiddleware(sess), middleware.LanguageMiddleware())
	r.GET("/login", h.ShowLoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.ShowRegisterPage)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)
	r.GET("/partials/levels", h.LevelOptions)
	return r
}

func postForm(r *gin.Engine, target string, form url.Values, lang string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set("Accept-Language", lang)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func TestLogin(t *testing.T) {
	user := &models.User{ID: "u1", Email: "awa@example.com", Name: "Awa", Role: models.RoleStudent}

	tests := []struct {
		name       string
		err        error
		lang       string
		wantStatus int
		wantAlert  string
	}{
		{
			name:       "success redirects to dashboard",
			wantStatus: http.StatusOK,
		},
		{
			name:       "backend message is shown",
			err:        &models.AuthenticationError{Status: 401, Message: "Invalid email or password"},
			lang:       "en",
			wantStatus: http.StatusUnauthorized,
			wantAlert:  "Invalid email or password",
		},
		{
			name:       "generic message is translated",
			err:        &models.AuthenticationError{Status: 401, Message: "Invalid email or password"},
			lang:       "fr",
			wantStatus: http.StatusUnauthorized,
			wantAlert:  "E-mail ou mot de passe incorrect",
		},
		{
			name:       "network failure",
			err:        &models.NetworkError{Op: "auth.login", Err: errors.New("dial tcp: connection refused")},
			lang:       "en",
			wantStatus: http.StatusServiceUnavailable,
			wantAlert:  "Unable to reach the server. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &MockSession{}
			if tt.err != nil {
				sess.On("Login", mock.Anything, "awa@example.com", "bad").Return(nil, tt.err)
			} else {
				sess.On("Login", mock.Anything, "awa@example.com", "bad").Return(user, nil)
			}
			r := newRouter(sess, &MockCurriculum{})

			w := postForm(r, "/login", url.Values{"email": {" awa@example.com "}, "password": {"bad"}}, tt.lang)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantAlert == "" {
				assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
			} else {
				assert.Equal(t, loginTarget, w.Header().Get("HX-Retarget"))
				assert.Equal(t, tt.wantAlert, parse(t, w).Find(`[role="alert"] p`).First().Text())
			}
			sess.AssertExpectations(t)
		})
	}
}

func TestShowLoginPage_SignedInRedirects(t *testing.T) {
	sess := &MockSession{snapshot: session.Snapshot{
		Status: session.StatusAuthenticated,
		Token:  "tok",
		User:   &models.User{ID: "u1", Name: "Awa", Role: models.RoleStudent},
	}}
	r := newRouter(sess, &MockCurriculum{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestShowLoginPage_Anonymous(t *testing.T) {
	r := newRouter(&MockSession{}, &MockCurriculum{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, 1, doc.Find("#login-form").Length())
	assert.Equal(t, 1, doc.Find(`[data-testid="navbar"]`).Length())
}

func TestRegister(t *testing.T) {
	want := models.RegisterRequest{
		Email:    "moussa@example.com",
		Password: "secret1",
		Name:     "Moussa",
		Role:     models.RoleTeacher,
		BranchID: "b1",
		LevelID:  "l2",
		Filiere:  "S2",
	}
	form := url.Values{
		"email":     {want.Email},
		"password":  {want.Password},
		"name":      {want.Name},
		"role":      {"teacher"},
		"branch_id": {"b1"},
		"level_id":  {"l2"},
		"filiere":   {" S2 "},
	}

	t.Run("success", func(t *testing.T) {
		sess := &MockSession{}
		sess.On("Register", mock.Anything, want).Return(&models.User{ID: "u2", Role: models.RoleTeacher}, nil)
		w := postForm(newRouter(sess, &MockCurriculum{}), "/register", form, "en")
		assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
		sess.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		sess := &MockSession{}
		sess.On("Register", mock.Anything, want).Return(nil, &models.RegistrationError{Status: 400, Message: "Email already registered"})
		w := postForm(newRouter(sess, &MockCurriculum{}), "/register", form, "en")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, registerTarget, w.Header().Get("HX-Retarget"))
		assert.Contains(t, parse(t, w).Find("#register-error").Text(), "Email already registered")
	})

	t.Run("invalid fields are listed", func(t *testing.T) {
		sess := &MockSession{}
		sess.On("Register", mock.Anything, mock.Anything).Return(nil, &models.RegistrationError{
			Message: "invalid registration data",
			Fields:  []models.FieldError{{Field: "email", Error: "email"}},
		})
		w := postForm(newRouter(sess, &MockCurriculum{}), "/register", url.Values{"email": {"nope"}}, "en")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 1, parse(t, w).Find(`[data-field="email"]`).Length())
	})
}

func TestShowRegisterPage_CachesBranches(t *testing.T) {
	curriculum := &MockCurriculum{}
	curriculum.On("Branches", mock.Anything).Return([]models.Branch{{ID: "b1", Name: "Sciences", NameEN: "Science"}}, nil).Once()
	r := newRouter(&MockSession{}, curriculum)

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/register", nil)
		req.Header.Set("Accept-Language", "en")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Science", parse(t, w).Find(`#branch_id option[value="b1"]`).Text())
	}
	curriculum.AssertExpectations(t)
}

func TestLevelOptions(t *testing.T) {
	curriculum := &MockCurriculum{}
	curriculum.On("Levels", mock.Anything, "b1").Return([]models.Level{{ID: "l1", BranchID: "b1", Name: "Terminale"}}, nil)
	r := newRouter(&MockSession{}, curriculum)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partials/levels?branch_id=b1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, "Terminale", doc.Find(`option[value="l1"]`).Text())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partials/levels", nil))
	assert.Equal(t, 1, parse(t, w).Find("option").Length())
	curriculum.AssertNumberOfCalls(t, "Levels", 1)
}

func TestLogout(t *testing.T) {
	sess := &MockSession{}
	sess.On("Logout").Return()
	r := newRouter(sess, &MockCurriculum{})

	w := postForm(r, "/logout", url.Values{}, "fr")
	assert.Equal(t, "/", w.Header().Get("HX-Redirect"))
	sess.AssertExpectations(t)
}
