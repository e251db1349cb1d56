package components

import (
	"context"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/kaayjang/kaayjang-web/internal/app/i18n"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

const cardClass = "rounded-xl border border-gray-200 bg-white p-6 shadow-sm"

func HomePage(lang string, user *models.User) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("section", "class", "py-12 text-center", "data-testid", "home-page")
		h.el("h1", "KAAY-JANG", "class", "text-5xl font-bold text-emerald-700")
		if user != nil {
			h.el("p", i18n.T(lang, "Welcome, %s", user.Name), "class", "mt-4 text-xl text-gray-700", "data-testid", "welcome")
			h.el("a", i18n.T(lang, "Dashboard"), "href", "/dashboard", "class", ButtonClass(VariantDefault, "mt-8"))
		} else {
			h.open("div", "class", "mt-8 flex justify-center gap-4")
			h.el("a", i18n.T(lang, "Login"), "href", "/login", "class", ButtonClass(VariantOutline))
			h.el("a", i18n.T(lang, "Register"), "href", "/register", "class", ButtonClass(VariantDefault))
			h.close("div")
		}
		h.close("section")
		return h.err
	})
}

// ProfileView is what the profile page shows. Own is true when the viewer
// looks at their own profile, which is then editable.
type ProfileView struct {
	Lang      string
	User      *models.User
	Own       bool
	Following bool
	Counts    models.FollowCounts
}

func ProfilePage(v ProfileView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		u := v.User
		h.open("div", "class", Class(cardClass, "mx-auto max-w-2xl"), "data-testid", "profile-page", "data-user-id", u.ID)
		h.open("div", "class", "flex items-center gap-4")
		if u.AvatarURL != "" {
			h.open("img", "src", safeURL(u.AvatarURL), "alt", u.Name, "class", "h-16 w-16 rounded-full")
		}
		h.open("div", "class", "flex-1")
		h.el("h1", u.Name, "class", "text-2xl font-bold text-gray-800", "data-testid", "profile-name")
		h.el("p", i18n.T(v.Lang, string(u.Role)), "class", "text-sm text-gray-500", "data-testid", "profile-role")
		h.open("p", "class", "text-sm text-gray-500")
		h.el("span", strconv.Itoa(v.Counts.Followers), "data-testid", "followers-count")
		h.text(" " + i18n.T(v.Lang, "followers") + " · ")
		h.el("span", strconv.Itoa(v.Counts.Following), "data-testid", "following-count")
		h.text(" " + i18n.T(v.Lang, "following"))
		h.close("p")
		h.close("div")
		if !v.Own {
			h.render(FollowButton(v.Lang, u.ID, v.Following))
		}
		h.close("div")

		h.open("div", "id", "profile-response", "class", "mt-4")
		h.close("div")

		if v.Own {
			h.open("form", "id", "profile-form", "method", "post", "action", "/profile", "class", "mt-6",
				"hx-post", "/profile", "hx-target", "#profile-response", "hx-swap", "innerHTML")
			field(h, v.Lang, "Name", "name", "text", u.Name, true)
			field(h, v.Lang, "Avatar URL", "avatar_url", "url", u.AvatarURL, false)
			field(h, v.Lang, "Establishment", "establishment", "text", u.Establishment, false)
			field(h, v.Lang, "Objectives", "objectives", "text", u.Objectives, false)
			h.open("div", "class", "mb-4")
			h.el("label", i18n.T(v.Lang, "Bio"), "for", "bio", "class", "block text-sm font-medium text-gray-700")
			h.el("textarea", u.Bio, "id", "bio", "name", "bio", "rows", "4", "class", inputClass, "data-testid", "bio-input")
			h.close("div")
			h.el("button", i18n.T(v.Lang, "Save"), "type", "submit", "class", ButtonClass(VariantDefault), "data-testid", "profile-save")
			h.close("form")
		} else if u.Bio != "" {
			h.el("p", u.Bio, "class", "mt-6 text-gray-700", "data-testid", "profile-bio")
		}
		h.close("div")
		return h.err
	})
}

// FollowButton toggles following userID and replaces itself with the result.
func FollowButton(lang, userID string, following bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		label, method, variant := "Follow", "hx-post", VariantDefault
		if following {
			label, method, variant = "Unfollow", "hx-delete", VariantOutline
		}
		h.el("button", i18n.T(lang, label), "type", "button", "id", "follow-button",
			method, "/users/"+userID+"/follow", "hx-swap", "outerHTML",
			"class", ButtonClass(variant), "data-testid", "follow-button", "data-following", strconv.FormatBool(following))
		return h.err
	})
}

// DashboardPage shows the role dependent statistics, sorted by key, and the
// assignments of students and teachers.
func DashboardPage(lang string, user *models.User, stats models.Stats, assignments []models.Assignment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "data-testid", "dashboard-page", "data-role", string(user.Role))
		h.el("h1", i18n.T(lang, "Welcome, %s", user.Name), "class", "mb-2 text-4xl font-bold text-gray-800")
		h.el("h2", i18n.T(lang, "Statistics"), "class", "mb-6 text-xl text-gray-600")
		h.open("div", "id", "dashboard-response", "class", "mb-4")
		h.close("div")

		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		h.open("div", "class", "grid grid-cols-1 gap-6 md:grid-cols-2 lg:grid-cols-4")
		for _, k := range keys {
			h.open("div", "class", cardClass, "data-testid", "stat-"+k)
			h.el("p", i18n.Humanize(lang, k), "class", "text-sm text-gray-600")
			h.el("p", formatStat(k, stats[k]), "class", "text-3xl font-bold text-gray-900", "data-stat-value=", "")
			h.close("div")
		}
		h.close("div")

		if user.Role == models.RoleStudent || user.Role == models.RoleTeacher {
			h.render(AssignmentList(lang, user.Role, assignments))
		}

		if user.Role == models.RoleAdmin {
			h.open("section", "class", "mt-10")
			h.el("h2", i18n.T(lang, "Pending teachers"), "class", "mb-4 text-2xl font-semibold text-gray-800")
			h.open("div", "id", "pending-teachers", "hx-get", "/admin/pending-teachers", "hx-trigger", "load", "hx-swap", "innerHTML")
			h.close("div")
			h.close("section")
		}
		h.close("div")
		return h.err
	})
}

// AssignmentList renders assignments with their due date. Descriptions are
// cut to a short excerpt.
func AssignmentList(lang string, role models.Role, assignments []models.Assignment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		title, empty := "Available assignments", "No assignments available"
		if role == models.RoleTeacher {
			title, empty = "My assignments", "No assignments"
		}
		h.open("section", "class", Class(cardClass, "mt-10"), "data-testid", "assignments")
		h.el("h2", i18n.T(lang, title), "class", "mb-4 text-2xl font-semibold text-gray-800")
		if len(assignments) == 0 {
			h.el("p", i18n.T(lang, empty), "class", "text-gray-600", "data-testid", "no-assignments")
		}
		h.open("div", "class", "space-y-3")
		for _, a := range assignments {
			h.open("div", "class", "rounded-lg bg-gray-50 p-4", "data-testid", "assignment-"+a.ID)
			h.el("h3", a.Title, "class", "font-semibold text-gray-800")
			h.el("p", excerpt(a.Description, 100), "class", "text-sm text-gray-600")
			if a.DueDate != nil {
				h.el("time", i18n.T(lang, "Due %s", a.DueDate.Format("02/01/2006")), "datetime", a.DueDate.Format("2006-01-02"),
					"class", "mt-1 block text-xs text-gray-500", "data-testid", "due-date")
			}
			h.close("div")
		}
		h.close("div")
		h.close("section")
		return h.err
	})
}

// excerpt shortens s to at most n runes, marking the cut with an ellipsis.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatStat(key string, v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v != math.Trunc(v) {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	if key == "average_score" {
		s += "%"
	}
	return s
}

// PendingTeachers lists teachers awaiting validation.
func PendingTeachers(lang string, teachers []models.User) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		if len(teachers) == 0 {
			h.el("p", i18n.T(lang, "No pending teachers"), "class", "text-gray-500", "data-testid", "no-pending")
			return h.err
		}
		h.open("ul", "class", "divide-y divide-gray-200", "data-testid", "pending-list")
		for _, t := range teachers {
			h.open("li", "id", "pending-"+t.ID, "class", "flex items-center justify-between py-3", "data-teacher-id", t.ID)
			h.open("div")
			h.el("p", t.Name, "class", "font-medium text-gray-800")
			h.el("p", t.Email, "class", "text-sm text-gray-500")
			h.close("div")
			h.el("button", i18n.T(lang, "Validate"), "type", "button",
				"hx-post", "/admin/teachers/"+t.ID+"/validate", "hx-target", "#pending-"+t.ID, "hx-swap", "outerHTML",
				"class", ButtonClass(VariantDefault, "px-3 py-1"), "data-testid", "validate-"+t.ID)
			h.close("li")
		}
		h.close("ul")
		return h.err
	})
}

// ValidatedTeacher replaces a pending row once the teacher is validated.
func ValidatedTeacher(lang, teacherID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.el("li", i18n.T(lang, "Teacher validated"), "id", "pending-"+teacherID,
			"class", "py-3 text-sm text-emerald-700", "data-testid", "validated-"+teacherID)
		return h.err
	})
}

// NotificationsPage lists notifications, newest first as sent by the backend.
func NotificationsPage(lang string, notifications []models.Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "class", "mx-auto max-w-4xl", "data-testid", "notifications-page")
		h.open("div", "class", "mb-8 flex items-center justify-between")
		h.el("h1", i18n.T(lang, "Notifications"), "class", "text-4xl font-bold text-gray-800")
		h.el("button", i18n.T(lang, "Mark all as read"), "type", "button",
			"hx-post", "/notifications/read-all", "hx-target", "#notifications-list", "hx-swap", "outerHTML",
			"class", ButtonClass(VariantOutline), "data-testid", "mark-all-read")
		h.close("div")
		h.render(NotificationList(lang, notifications))

		h.open("section", "class", Class(cardClass, "mt-8"), "data-testid", "notification-settings-section")
		h.el("h2", i18n.T(lang, "Notification settings"), "class", "mb-4 text-2xl font-semibold text-gray-800")
		h.open("div", "id", "notification-settings-response")
		h.close("div")
		h.open("div", "id", "notification-settings", "hx-get", "/notifications/settings", "hx-trigger", "load", "hx-swap", "innerHTML")
		h.close("div")
		h.close("section")
		h.close("div")
		return h.err
	})
}

// NotificationSettingsForm renders one checkbox per switch. Every change is
// saved at once and the form replaced with the stored settings.
func NotificationSettingsForm(lang string, settings models.NotificationSettings) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("form", "id", "notification-settings-form", "method", "post", "action", "/notifications/settings",
			"hx-post", "/notifications/settings", "hx-trigger", "change", "hx-target", "this", "hx-swap", "outerHTML",
			"class", "space-y-4", "data-testid", "notification-settings-form")
		for _, sw := range settings.Switches() {
			h.open("div", "class", "flex items-center justify-between")
			h.el("label", i18n.T(lang, sw.Label), "for", sw.Key, "class", "text-gray-700")
			attrs := []string{"type", "checkbox", "id", sw.Key, "name", sw.Key, "value", "on",
				"class", "h-5 w-5 accent-emerald-600", "data-testid", "setting-" + sw.Key}
			if sw.On {
				attrs = append(attrs, "checked=", "")
			}
			h.open("input", attrs...)
			h.close("div")
		}
		h.el("button", i18n.T(lang, "Save"), "type", "submit", "class", ButtonClass(VariantOutline), "data-testid", "settings-save")
		h.close("form")
		return h.err
	})
}

func NotificationList(lang string, notifications []models.Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "id", "notifications-list", "class", cardClass)
		if len(notifications) == 0 {
			h.el("p", i18n.T(lang, "No notifications"), "class", "py-8 text-center text-gray-500", "data-testid", "no-notifications")
		}
		for _, n := range notifications {
			h.render(NotificationItem(lang, n))
		}
		h.close("div")
		return h.err
	})
}

func NotificationItem(lang string, n models.Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		class := "flex items-start justify-between border-b border-gray-100 py-4"
		if !n.Read {
			class = Class(class, "bg-emerald-50 px-2")
		}
		h.open("div", "id", "notification-"+n.ID, "class", class, "data-testid", "notification", "data-read", strconv.FormatBool(n.Read))
		h.open("div")
		if n.Link != "" {
			h.el("a", n.LocalizedMessage(lang), "href", safeURL(n.Link), "class", "text-gray-800 hover:underline")
		} else {
			h.el("p", n.LocalizedMessage(lang), "class", "text-gray-800")
		}
		if n.CreatedAt != nil {
			h.el("time", n.CreatedAt.Format("02/01/2006 15:04"), "datetime", n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				"class", "text-xs text-gray-500")
		}
		h.close("div")
		if !n.Read {
			h.el("button", i18n.T(lang, "Mark as read"), "type", "button",
				"hx-post", "/notifications/"+n.ID+"/read", "hx-target", "#notifications-list", "hx-swap", "outerHTML",
				"class", ButtonClass(VariantGhost, "px-2 py-1 text-xs"), "data-testid", "mark-read")
		}
		h.close("div")
		return h.err
	})
}

// ForumFilter is the curriculum selection narrowing the topic list.
type ForumFilter struct {
	BranchID  string
	LevelID   string
	SubjectID string
}

// ForumView is what the forum page shows. Levels are those of the selected
// branch.
type ForumView struct {
	Lang     string
	Topics   []models.Topic
	Filter   ForumFilter
	Branches []models.Branch
	Levels   []models.Level
	Subjects []models.Subject
}

// ForumPage lists topics under a filter form. Changing a select reloads the
// page in place; the submit button serves browsers without htmx.
func ForumPage(v ForumView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		lang := v.Lang
		h.open("div", "id", "forum-page", "data-testid", "forum-page")
		h.el("h1", i18n.T(lang, "Topics"), "class", "mb-6 text-4xl font-bold text-gray-800")

		h.open("form", "id", "forum-filters", "method", "get", "action", "/forum", "class", Class(cardClass, "mb-8"),
			"hx-get", "/forum", "hx-trigger", "change", "hx-target", "#forum-page", "hx-swap", "outerHTML", "hx-push-url", "true")
		h.open("div", "class", "grid grid-cols-1 gap-4 md:grid-cols-3")

		filterSelect(h, lang, "Branch", "branch_id", "filter-branch", false)
		h.el("option", i18n.T(lang, "All"), "value", "")
		for _, b := range v.Branches {
			option(h, b.ID, b.LocalizedName(lang), b.ID == v.Filter.BranchID)
		}
		h.close("select")
		h.close("div")

		filterSelect(h, lang, "Level", "level_id", "filter-level", v.Filter.BranchID == "")
		h.el("option", i18n.T(lang, "All"), "value", "")
		for _, l := range v.Levels {
			option(h, l.ID, l.LocalizedName(lang), l.ID == v.Filter.LevelID)
		}
		h.close("select")
		h.close("div")

		filterSelect(h, lang, "Subject", "subject_id", "filter-subject", false)
		h.el("option", i18n.T(lang, "All"), "value", "")
		for _, sub := range v.Subjects {
			option(h, sub.ID, sub.LocalizedName(lang), sub.ID == v.Filter.SubjectID)
		}
		h.close("select")
		h.close("div")

		h.close("div")
		h.el("button", i18n.T(lang, "Filter"), "type", "submit", "class", ButtonClass(VariantOutline, "mt-4"), "data-testid", "filter-submit")
		h.close("form")

		h.open("div", "id", "forum-response", "class", "mb-4")
		h.close("div")
		if len(v.Topics) == 0 {
			h.el("p", i18n.T(lang, "No topics yet"), "class", "text-gray-500", "data-testid", "no-topics")
		}
		h.open("div", "class", "space-y-4")
		for _, t := range v.Topics {
			h.open("article", "class", cardClass, "data-testid", "topic", "data-topic-id", t.ID)
			h.el("h2", t.Title, "class", "text-lg font-semibold text-gray-800")
			h.el("p", t.Content, "class", "mt-2 line-clamp-3 text-gray-600")
			h.open("p", "class", "mt-3 text-xs text-gray-500")
			if t.AuthorName != "" {
				h.el("a", t.AuthorName, "href", "/users/"+t.AuthorID, "class", "font-medium hover:underline")
				h.text(" · ")
			}
			h.text(strconv.Itoa(t.ViewsCount) + " " + i18n.T(lang, "Views") + " · " +
				strconv.Itoa(t.RepliesCount) + " " + i18n.T(lang, "Replies"))
			h.close("p")
			h.close("article")
		}
		h.close("div")
		h.close("div")
		return h.err
	})
}

// filterSelect opens a labelled select; the caller writes the options and
// closes the select and its wrapper.
func filterSelect(h *html, lang, label, name, testID string, disabled bool) {
	h.open("div")
	h.el("label", i18n.T(lang, label), "for", name, "class", "mb-2 block text-sm font-medium text-gray-700")
	attrs := []string{"id", name, "name", name, "class", inputClass, "data-testid", testID}
	if disabled {
		attrs = append(attrs, "disabled=", "")
	}
	h.open("select", attrs...)
}

func option(h *html, value, label string, selected bool) {
	attrs := []string{"value", value}
	if selected {
		attrs = append(attrs, "selected=", "")
	}
	h.open("option", attrs...)
	h.text(label)
	h.close("option")
}
