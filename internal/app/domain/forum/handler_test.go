package forum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
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
	"github.com/kaayjang/kaayjang-web/internal/app/services/backend"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
	"github.com/kaayjang/kaayjang-web/internal/pkg/cache"
)

type fixedSession session.Snapshot

func (f fixedSession) Snapshot() session.Snapshot { return session.Snapshot(f) }

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Topics(ctx context.Context, token string, filter backend.TopicFilter) ([]models.Topic, error) {
	args := m.Called(ctx, token, filter)
	t, _ := args.Get(0).([]models.Topic)
	return t, args.Error(1)
}

func (m *MockBackend) Branches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]models.Branch)
	return b, args.Error(1)
}

func (m *MockBackend) Levels(ctx context.Context, branchID string) ([]models.Level, error) {
	args := m.Called(ctx, branchID)
	l, _ := args.Get(0).([]models.Level)
	return l, args.Error(1)
}

func (m *MockBackend) Subjects(ctx context.Context) ([]models.Subject, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Subject)
	return s, args.Error(1)
}

// withCurriculum answers the filter option lists.
func withCurriculum(b *MockBackend) *MockBackend {
	b.On("Branches", mock.Anything).Return([]models.Branch{{ID: "b1", Name: "Lycée", NameEN: "High school"}}, nil)
	b.On("Levels", mock.Anything, "b1").Return([]models.Level{{ID: "l2", BranchID: "b1", Name: "Première"}}, nil)
	b.On("Subjects", mock.Anything).Return([]models.Subject{{ID: "s1", Name: "Mathématiques", NameEN: "Mathematics"}}, nil)
	return b
}

func newRouter(b *MockBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	sess := fixedSession{
		Status: session.StatusAuthenticated,
		Token:  "tok",
		User:   &models.User{ID: "u1", Name: "Awa", Role: models.RoleStudent},
	}
	h := NewForumHandlers(domain.NewBaseHandler(nil, nil, nil), b, cache.NewCacheManager(nil), sess)
	r := gin.New()
	r.Use(sessions.Sessions("kaayjang", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(middleware.SessionMiddleware(sess), middleware.LanguageMiddleware())
	r.GET("/forum", h.ShowForum)
	return r
}

func TestShowForum(t *testing.T) {
	b := withCurriculum(&MockBackend{})
	b.On("Topics", mock.Anything, "tok", backend.TopicFilter{BranchID: "b1", LevelID: "l2"}).Return([]models.Topic{
		{ID: "t1", Title: "Dérivées", Content: "Comment dériver x²?", AuthorID: "u7", AuthorName: "Moussa", ViewsCount: 10, RepliesCount: 2},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/forum?branch_id=b1&level_id=l2", nil)
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	newRouter(b).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	topic := doc.Find(`[data-testid="topic"]`)
	assert.Equal(t, "t1", topic.AttrOr("data-topic-id", ""))
	assert.Equal(t, "/users/u7", topic.Find("a").AttrOr("href", ""))
	assert.Equal(t, 1, doc.Find(`[data-testid="navbar"]`).Length())
	assert.Equal(t, "High school", doc.Find(`#branch_id option[selected]`).Text())
	assert.Equal(t, "l2", doc.Find(`#level_id option[selected]`).AttrOr("value", ""))
	assert.Equal(t, "Mathematics", doc.Find(`#subject_id option[value="s1"]`).Text())
	b.AssertExpectations(t)
}

func TestShowForum_Filters(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		filter backend.TopicFilter
	}{
		{"no filter", "", backend.TopicFilter{}},
		{"subject only", "?subject_id=s1", backend.TopicFilter{SubjectID: "s1"}},
		{"level of another branch is dropped", "?branch_id=b1&level_id=l9", backend.TopicFilter{BranchID: "b1"}},
		{"level without branch is dropped", "?level_id=l2", backend.TopicFilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := withCurriculum(&MockBackend{})
			b.On("Topics", mock.Anything, "tok", tt.filter).Return([]models.Topic{}, nil)

			req := httptest.NewRequest(http.MethodGet, "/forum"+tt.query, nil)
			req.Header.Set("HX-Request", "true")
			w := httptest.NewRecorder()
			newRouter(b).ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			doc, err := goquery.NewDocumentFromReader(w.Body)
			require.NoError(t, err)
			assert.Equal(t, 1, doc.Find("#forum-filters").Length())
			assert.Equal(t, 0, doc.Find(`[data-testid="navbar"]`).Length(), "htmx gets the page without the layout")
			b.AssertCalled(t, "Topics", mock.Anything, "tok", tt.filter)
		})
	}
}

func TestShowForum_FilterOptionsAreCached(t *testing.T) {
	b := withCurriculum(&MockBackend{})
	b.On("Topics", mock.Anything, "tok", mock.Anything).Return([]models.Topic{}, nil)
	r := newRouter(b)

	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forum?branch_id=b1", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	b.AssertNumberOfCalls(t, "Branches", 1)
	b.AssertNumberOfCalls(t, "Levels", 1)
	b.AssertNumberOfCalls(t, "Subjects", 1)
	b.AssertNumberOfCalls(t, "Topics", 2)
}

func TestShowForum_FilterOptionsUnavailable(t *testing.T) {
	b := &MockBackend{}
	b.On("Branches", mock.Anything).Return(nil, &models.NetworkError{Op: "branches.list", Err: errors.New("timeout")})
	b.On("Subjects", mock.Anything).Return(nil, &models.NetworkError{Op: "subjects.list", Err: errors.New("timeout")})
	b.On("Topics", mock.Anything, "tok", backend.TopicFilter{}).Return([]models.Topic{{ID: "t1", Title: "Bonjour"}}, nil)

	w := httptest.NewRecorder()
	newRouter(b).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forum", nil))

	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(`#branch_id option`).Length(), "only the all option")
	assert.Equal(t, 1, doc.Find(`[data-testid="topic"]`).Length())
}

func TestShowForum_BackendDown(t *testing.T) {
	b := withCurriculum(&MockBackend{})
	b.On("Topics", mock.Anything, "tok", backend.TopicFilter{}).Return(nil, &models.NetworkError{Op: "topics.list", Err: errors.New("timeout")})

	req := httptest.NewRequest(http.MethodGet, "/forum", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	newRouter(b).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, forumTarget, w.Header().Get("HX-Retarget"))
}
