package components_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	r, w := io.Pipe()
	go func() {
		_ = w.CloseWithError(c.Render(context.Background(), w))
	}()
	doc, err := goquery.NewDocumentFromReader(r)
	require.NoError(t, err)
	return doc
}

var awa = &models.User{ID: "u1", Name: "Awa <Diop>", Email: "awa@kaay-jang.sn", Role: models.RoleStudent}

func TestLayout(t *testing.T) {
	tests := []struct {
		name   string
		data   models.LayoutTempl
		assert func(*testing.T, *goquery.Document)
	}{
		{
			name: "anonymous visitor sees login and register",
			data: models.LayoutTempl{Title: "Home", Lang: "fr", Nav: models.OfflineNav, ActiveNav: "Home"},
			assert: func(t *testing.T, doc *goquery.Document) {
				assert.Equal(t, "fr", doc.Find("html").AttrOr("lang", ""))
				assert.Equal(t, "Accueil · KAAY-JANG", doc.Find("title").Text())
				assert.Equal(t, "Connexion", doc.Find("[data-testid='login-btn']").Text())
				assert.Equal(t, 0, doc.Find("#unread-badge").Length())
				assert.Equal(t, 0, doc.Find("[data-testid='user-menu-logout']").Length())
			},
		},
		{
			name: "signed in user sees badge and logout",
			data: models.LayoutTempl{Title: "Dashboard", Lang: "en", User: awa, Nav: models.MainNav, ActiveNav: "Dashboard", UnreadCount: 4},
			assert: func(t *testing.T, doc *goquery.Document) {
				assert.Equal(t, "4", doc.Find("#unread-badge").Text())
				assert.Equal(t, "/logout", doc.Find("[data-testid='user-menu-logout']").AttrOr("hx-post", ""))
				assert.Equal(t, "Awa <Diop>", strings.TrimSpace(doc.Find("[data-testid='user-menu-profile']").Text()), "names are escaped, not injected")
				assert.Equal(t, 3, doc.Find("[data-testid='nav-links'] a").Length())
				active := doc.Find("a[data-nav='/dashboard']").AttrOr("class", "")
				assert.Contains(t, active, "bg-emerald-600")
				assert.NotContains(t, active, "bg-transparent", "variant classes are merged, not stacked")
			},
		},
		{
			name: "banner slot and content are rendered",
			data: models.LayoutTempl{Lang: "fr", Nav: models.OfflineNav, Content: components.HomePage("fr", nil)},
			assert: func(t *testing.T, doc *goquery.Document) {
				slot := doc.Find("#ad-banner")
				assert.Equal(t, "/partials/banner", slot.AttrOr("hx-get", ""))
				assert.Equal(t, 1, doc.Find("[data-testid='home-page']").Length())
				assert.Equal(t, "KAAY-JANG", doc.Find("title").Text())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, render(t, components.Layout(tt.data)))
		})
	}
}

func TestUnreadBadge(t *testing.T) {
	doc := render(t, components.UnreadBadge(0))
	badge := doc.Find("#unread-badge")
	require.Equal(t, 1, badge.Length(), "badge stays in the page to keep polling")
	assert.True(t, badge.HasClass("hidden"))
	assert.Empty(t, badge.Text())
	assert.Equal(t, "every 15s, unread-changed from:body", badge.AttrOr("hx-trigger", ""))

	doc = render(t, components.UnreadBadge(12))
	badge = doc.Find("#unread-badge")
	assert.False(t, badge.HasClass("hidden"))
	assert.Equal(t, "12", badge.Text())
}

func TestAdBanner(t *testing.T) {
	b := &models.AdBanner{ID: "b2", Title: "Cours du soir", Text: "Inscriptions ouvertes", Phone: "+221 77 000 00 00", Link: "javascript:alert(1)"}
	doc := render(t, components.AdBanner(b, 1, 3))

	assert.Equal(t, "1", doc.Find("[data-testid='ad-banner']").AttrOr("data-index", ""))
	assert.Equal(t, "Cours du soir", doc.Find("[data-testid='ad-banner-title']").Text())
	assert.Equal(t, 1, doc.Find("[data-testid='ad-banner-phone']").Length())
	assert.Equal(t, 0, doc.Find("[data-testid='ad-banner-email']").Length())
	assert.NotContains(t, doc.Find("[data-testid='ad-banner-link']").AttrOr("href", ""), "javascript:")
	assert.Equal(t, 3, doc.Find("[data-dot]").Length())
	assert.True(t, doc.Find("[data-dot='1']").HasClass("bg-emerald-600"))
	assert.False(t, doc.Find("[data-dot='1']").HasClass("bg-emerald-200"))

	doc = render(t, components.AdBanner(nil, 0, 0))
	assert.Equal(t, 0, doc.Find("[data-testid='ad-banner']").Length())
}

func TestLoginPage(t *testing.T) {
	doc := render(t, components.LoginPage("en", "awa@kaay-jang.sn"))

	form := doc.Find("form[hx-post='/login']")
	require.Equal(t, 1, form.Length())
	assert.Equal(t, "#login-response", form.AttrOr("hx-target", ""))
	assert.Equal(t, 1, doc.Find("#login-response").Length())

	email := doc.Find("input[name='email'][type='email']")
	assert.Equal(t, "awa@kaay-jang.sn", email.AttrOr("value", ""))
	_, required := email.Attr("required")
	assert.True(t, required)
	assert.Equal(t, "", doc.Find("input[name='password']").AttrOr("value", ""), "passwords are never echoed")
	assert.Equal(t, 1, doc.Find("a[href='/register']").Length())
}

func TestRegisterPage(t *testing.T) {
	branches := []models.Branch{{ID: "b1", Name: "Lycée", NameEN: "High school"}, {ID: "b2", Name: "Collège", NameEN: "Middle school"}}
	levels := []models.Level{{ID: "l1", BranchID: "b2", Name: "3e", NameEN: "9th grade"}}
	req := models.RegisterRequest{Name: "Awa", Email: "awa@kaay-jang.sn", Role: models.RoleTeacher, BranchID: "b2", LevelID: "l1"}

	doc := render(t, components.RegisterPage("en", req, branches, levels))

	assert.Equal(t, "teacher", doc.Find("select[name='role'] option[selected]").AttrOr("value", ""))
	assert.Equal(t, "Middle school", doc.Find("select[name='branch_id'] option[selected]").Text())
	assert.Equal(t, "/partials/levels", doc.Find("select[name='branch_id']").AttrOr("hx-get", ""))
	assert.Equal(t, "l1", doc.Find("select[name='level_id'] option[selected]").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("select[name='role'] option[value='admin']").Length(), "admins are not self registered")
	_, required := doc.Find("input[name='filiere']").Attr("required")
	assert.False(t, required)
}

func TestRegistrationAlert(t *testing.T) {
	err := &models.RegistrationError{Message: "invalid registration data", Fields: []models.FieldError{{Field: "email", Error: "email"}}}
	doc := render(t, components.RegistrationAlert("fr", err))

	assert.Equal(t, "Données d'inscription invalides", doc.Find("[role='alert'] p").First().Text())
	assert.Equal(t, 1, doc.Find("li[data-field='email']").Length())
}

func TestProfilePage(t *testing.T) {
	t.Run("own profile is editable", func(t *testing.T) {
		doc := render(t, components.ProfilePage(components.ProfileView{Lang: "fr", User: awa, Own: true}))
		assert.Equal(t, 1, doc.Find("form[hx-post='/profile']").Length())
		assert.Equal(t, 0, doc.Find("#follow-button").Length())
		assert.Equal(t, "Awa <Diop>", doc.Find("input[name='name']").AttrOr("value", ""))
	})

	t.Run("other profile has follow toggle", func(t *testing.T) {
		v := components.ProfileView{Lang: "en", User: awa, Following: true, Counts: models.FollowCounts{Followers: 5, Following: 2}}
		doc := render(t, components.ProfilePage(v))
		btn := doc.Find("#follow-button")
		assert.Equal(t, "Unfollow", btn.Text())
		assert.Equal(t, "/users/u1/follow", btn.AttrOr("hx-delete", ""))
		assert.Equal(t, "5", doc.Find("[data-testid='followers-count']").Text())
		assert.Equal(t, 0, doc.Find("form").Length())
	})
}

func TestFollowButton(t *testing.T) {
	doc := render(t, components.FollowButton("fr", "u9", false))
	btn := doc.Find("#follow-button")
	assert.Equal(t, "Suivre", btn.Text())
	assert.Equal(t, "/users/u9/follow", btn.AttrOr("hx-post", ""))
	assert.Equal(t, "false", btn.AttrOr("data-following", ""))
}

func TestDashboardPage(t *testing.T) {
	student := &models.User{ID: "s1", Name: "Awa", Role: models.RoleStudent}
	stats := models.Stats{"total_assignments": 12, "completed_assignments": 5, "average_score": 87.5, "following": 3}

	due := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	assignments := []models.Assignment{{ID: "a1", Title: "Dérivées", Description: strings.Repeat("é", 120), DueDate: &due}}

	doc := render(t, components.DashboardPage("en", student, stats, assignments))
	assert.Equal(t, 4, doc.Find("[data-testid^='stat-']").Length())
	assert.Equal(t, "87.50%", doc.Find("[data-testid='stat-average_score'] [data-stat-value]").Text())
	assert.Equal(t, "12", doc.Find("[data-testid='stat-total_assignments'] [data-stat-value]").Text())
	assert.Equal(t, "Average score", doc.Find("[data-testid='stat-average_score'] p").First().Text())
	assert.Equal(t, 0, doc.Find("#pending-teachers").Length())
	item := doc.Find("[data-testid='assignment-a1']")
	assert.Equal(t, "Dérivées", item.Find("h3").Text())
	assert.Equal(t, strings.Repeat("é", 100)+"...", item.Find("p").Text())
	assert.Equal(t, "Due 01/03/2025", item.Find("[data-testid='due-date']").Text())

	teacher := &models.User{ID: "t1", Name: "M. Sarr", Role: models.RoleTeacher}
	doc = render(t, components.DashboardPage("fr", teacher, models.Stats{}, nil))
	assert.Equal(t, "Aucun devoir", doc.Find("[data-testid='no-assignments']").Text())

	admin := &models.User{ID: "a1", Name: "Admin", Role: models.RoleAdmin}
	doc = render(t, components.DashboardPage("fr", admin, models.Stats{"total_users": 40}, nil))
	assert.Equal(t, 0, doc.Find("[data-testid='assignments']").Length())
	assert.Equal(t, "/admin/pending-teachers", doc.Find("#pending-teachers").AttrOr("hx-get", ""))
	assert.Equal(t, "Utilisateurs", doc.Find("[data-testid='stat-total_users'] p").First().Text())
}

func TestPendingTeachers(t *testing.T) {
	doc := render(t, components.PendingTeachers("fr", nil))
	assert.Equal(t, "Aucun enseignant en attente", doc.Find("[data-testid='no-pending']").Text())

	doc = render(t, components.PendingTeachers("en", []models.User{{ID: "t1", Name: "Moussa", Role: models.RoleTeacher}}))
	btn := doc.Find("[data-testid='validate-t1']")
	assert.Equal(t, "/admin/teachers/t1/validate", btn.AttrOr("hx-post", ""))
	assert.Equal(t, "#pending-t1", btn.AttrOr("hx-target", ""))
}

func TestNotificationsPage(t *testing.T) {
	created := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	list := []models.Notification{
		{ID: "n1", Message: "Awa vous suit maintenant", MessageEN: "Awa is now following you", Link: "/users/u1", CreatedAt: &created},
		{ID: "n2", Message: "Nouveau devoir", Read: true},
	}

	doc := render(t, components.NotificationsPage("en", list))
	items := doc.Find("[data-testid='notification']")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "Awa is now following you", items.First().Find("a").Text())
	assert.Equal(t, "Nouveau devoir", items.Last().Find("p").Text(), "falls back to the French message")
	assert.Equal(t, 1, doc.Find("[data-testid='mark-read']").Length(), "read notifications have no button")
	assert.Equal(t, "15/01/2025 09:30", items.First().Find("time").Text())

	assert.Equal(t, "/notifications/settings", doc.Find("#notification-settings").AttrOr("hx-get", ""))

	doc = render(t, components.NotificationsPage("fr", nil))
	assert.Equal(t, "Aucune notification", doc.Find("[data-testid='no-notifications']").Text())
}

func TestNotificationSettingsForm(t *testing.T) {
	settings := models.NotificationSettings{EmailEnabled: true, InAppEnabled: true, NewFollowers: true}
	doc := render(t, components.NotificationSettingsForm("fr", settings))

	form := doc.Find("#notification-settings-form")
	assert.Equal(t, "/notifications/settings", form.AttrOr("hx-post", ""))
	assert.Equal(t, 6, form.Find("input[type='checkbox']").Length())
	assert.Equal(t, 3, form.Find("input[checked]").Length())
	_, checked := form.Find("[data-testid='setting-new_posts']").Attr("checked")
	assert.False(t, checked)
	assert.Equal(t, "Notifications par e-mail", form.Find("label[for='email_enabled']").Text())
}

func TestForumPage(t *testing.T) {
	topics := []models.Topic{{ID: "t1", Title: "Équations", Content: "Comment résoudre…", AuthorID: "u2", AuthorName: "Moussa", ViewsCount: 10, RepliesCount: 2}}
	doc := render(t, components.ForumPage(components.ForumView{
		Lang:     "fr",
		Topics:   topics,
		Filter:   components.ForumFilter{BranchID: "b1", SubjectID: "s2"},
		Branches: []models.Branch{{ID: "b1", Name: "Lycée"}, {ID: "b2", Name: "Collège"}},
		Levels:   []models.Level{{ID: "l1", BranchID: "b1", Name: "Terminale"}},
		Subjects: []models.Subject{{ID: "s1", Name: "Français"}, {ID: "s2", Name: "Mathématiques"}},
	}))

	topic := doc.Find("[data-testid='topic']")
	require.Equal(t, 1, topic.Length())
	assert.Equal(t, "Équations", topic.Find("h2").Text())
	assert.Contains(t, topic.Find("p").Last().Text(), "10 Vues · 2 Réponses")
	assert.Equal(t, "/users/u2", topic.Find("a").AttrOr("href", ""))

	filters := doc.Find("#forum-filters")
	assert.Equal(t, "#forum-page", filters.AttrOr("hx-target", ""))
	assert.Equal(t, "b1", filters.Find("#branch_id option[selected]").AttrOr("value", ""))
	assert.Equal(t, "s2", filters.Find("#subject_id option[selected]").AttrOr("value", ""))
	assert.Equal(t, 2, filters.Find("#level_id option").Length(), "all plus the levels of the branch")
	_, disabled := filters.Find("#level_id").Attr("disabled")
	assert.False(t, disabled)

	doc = render(t, components.ForumPage(components.ForumView{Lang: "en"}))
	_, disabled = doc.Find("#level_id").Attr("disabled")
	assert.True(t, disabled, "levels need a branch first")
	assert.Equal(t, "No topics yet", doc.Find("[data-testid='no-topics']").Text())
}

func TestClass(t *testing.T) {
	assert.Equal(t, "px-4 bg-red-600", components.Class("px-2 bg-emerald-600", "px-4 bg-red-600"))
	assert.Contains(t, components.ButtonClass(components.VariantDanger, "w-full"), "w-full")
}
