package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/kaayjang/kaayjang-web/internal/app/i18n"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

const (
	htmxSrc     = "https://unpkg.com/htmx.org@2.0.4"
	tailwindSrc = "https://cdn.tailwindcss.com"
	htmxConfig  = `{"responseHandling":[{"code":"204","swap":false},{"code":"...","swap":true}]}`
)

// Layout is the full page shell: navbar, rotating banner slot and content.
func Layout(data models.LayoutTempl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := i18n.Normalize(data.Lang)
		h := newHTML(ctx, w)
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", lang)
		h.open("head")
		h.raw(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		title := "KAAY-JANG"
		if data.Title != "" {
			title = i18n.Text(lang, data.Title) + " · KAAY-JANG"
		}
		h.el("title", title)
		// Form actions answer failures with 4xx alerts that must still swap.
		h.open("meta", "name", "htmx-config", "content", htmxConfig)
		h.open("script", "src", htmxSrc)
		h.close("script")
		h.open("script", "src", tailwindSrc)
		h.close("script")
		h.open("link", "rel", "stylesheet", "href", "/assets/css/app.css")
		h.close("head")

		h.open("body", "class", "min-h-screen bg-gradient-to-br from-slate-50 via-white to-teal-50")
		h.render(Navbar(data))
		h.open("main", "id", "content", "class", "max-w-7xl mx-auto px-4 py-8 sm:px-6 lg:px-8")
		h.open("div", "id", "ad-banner", "hx-get", "/partials/banner", "hx-trigger", "load, every 5s", "hx-swap", "innerHTML")
		h.close("div")
		h.render(data.Content)
		h.close("main")
		h.close("body")
		h.close("html")
		return h.err
	})
}

// Navbar renders navigation, the language switch and the user menu.
func Navbar(data models.LayoutTempl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := i18n.Normalize(data.Lang)
		h := newHTML(ctx, w)
		h.open("nav", "class", "sticky top-0 z-50 border-b border-gray-200 bg-white/90 backdrop-blur-lg", "data-testid", "navbar")
		h.open("div", "class", "max-w-7xl mx-auto flex h-16 items-center justify-between px-4 sm:px-6 lg:px-8")

		h.open("a", "href", "/", "class", "flex items-center space-x-2")
		h.el("span", "KAAY-JANG", "class", "text-2xl font-bold text-emerald-700")
		h.close("a")

		h.open("div", "class", "flex items-center space-x-2", "data-testid", "nav-links")
		for _, item := range data.Nav.Items {
			v := VariantGhost
			if item.Name == data.ActiveNav {
				v = VariantDefault
			}
			h.el("a", i18n.T(lang, item.Name), "href", item.URL, "class", ButtonClass(v, "font-medium"),
				"data-nav", item.URL)
		}
		h.close("div")

		h.open("div", "class", "flex items-center space-x-2")
		h.open("form", "method", "post", "action", "/language", "class", "flex")
		for _, l := range []string{i18n.FR, i18n.EN} {
			v := VariantGhost
			if l == lang {
				v = VariantOutline
			}
			h.el("button", l, "type", "submit", "name", "lang", "value", l, "class", ButtonClass(v, "px-2 uppercase"),
				"data-testid", "lang-"+l)
		}
		h.close("form")

		if data.User != nil {
			h.open("a", "href", "/notifications", "class", ButtonClass(VariantGhost, "relative px-2"), "data-testid", "notifications-btn")
			h.text(i18n.T(lang, "Notifications"))
			h.render(UnreadBadge(data.UnreadCount))
			h.close("a")

			h.open("a", "href", "/profile", "class", ButtonClass(VariantGhost, "px-2"), "data-testid", "user-menu-profile")
			if data.User.AvatarURL != "" {
				h.open("img", "src", safeURL(data.User.AvatarURL), "alt", data.User.Name, "class", "mr-2 h-8 w-8 rounded-full")
			}
			h.text(data.User.Name)
			h.close("a")

			h.open("button", "type", "button", "hx-post", "/logout", "class", ButtonClass(VariantGhost), "data-testid", "user-menu-logout")
			h.text(i18n.T(lang, "Logout"))
			h.close("button")
		} else {
			h.el("a", i18n.T(lang, "Login"), "href", "/login", "class", ButtonClass(VariantGhost), "data-testid", "login-btn")
			h.el("a", i18n.T(lang, "Register"), "href", "/register", "class", ButtonClass(VariantDefault), "data-testid", "register-btn")
		}
		h.close("div")

		h.close("div")
		h.close("nav")
		return h.err
	})
}

// UnreadBadge is the navbar counter. It is always rendered so that it keeps
// refreshing itself, and hidden while the count is zero.
func UnreadBadge(count int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		class := "absolute -top-1 -right-1 flex h-5 min-w-5 items-center justify-center rounded-full bg-red-500 px-1 text-xs text-white"
		if count <= 0 {
			class = Class(class, "hidden")
		}
		h.open("span", "id", "unread-badge", "data-testid", "unread-badge", "class", class,
			"hx-get", "/partials/unread-badge", "hx-trigger", "every 15s, unread-changed from:body", "hx-swap", "outerHTML")
		if count > 0 {
			h.text(strconv.Itoa(count))
		}
		h.close("span")
		return h.err
	})
}

// AdBanner renders banner index of total. Nothing is rendered without
// banners.
func AdBanner(b *models.AdBanner, index, total int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if b == nil || total == 0 {
			return nil
		}
		h := newHTML(ctx, w)
		h.open("div", "data-testid", "ad-banner", "data-index", strconv.Itoa(index),
			"class", "relative mb-6 overflow-hidden rounded-xl border border-emerald-200 bg-gradient-to-r from-emerald-50 to-teal-50 p-4")
		h.open("div", "class", "flex items-center gap-4")
		if b.ImageURL != "" {
			h.open("img", "src", safeURL(b.ImageURL), "alt", b.Title, "class", "h-20 w-20 rounded-lg object-cover",
				"data-testid", "ad-banner-image")
		}
		h.open("div", "class", "flex-1")
		h.el("h3", b.Title, "class", "font-semibold text-emerald-900", "data-testid", "ad-banner-title")
		h.el("p", b.Text, "class", "text-sm text-emerald-700", "data-testid", "ad-banner-text")
		h.open("div", "class", "mt-2 flex gap-4 text-xs text-emerald-600")
		if b.Phone != "" {
			h.el("span", b.Phone, "data-testid", "ad-banner-phone")
		}
		if b.Email != "" {
			h.el("span", b.Email, "data-testid", "ad-banner-email")
		}
		if b.Link != "" {
			h.el("a", "Visiter", "href", safeURL(b.Link), "target", "_blank", "rel", "noopener noreferrer",
				"class", "hover:text-emerald-800", "data-testid", "ad-banner-link")
		}
		h.close("div")
		h.close("div")
		h.close("div")

		h.open("div", "class", "absolute bottom-4 right-4 flex gap-1")
		for i := 0; i < total; i++ {
			dot := "h-2 w-2 rounded-full bg-emerald-200"
			if i == index {
				dot = Class(dot, "bg-emerald-600")
			}
			h.open("div", "class", dot, "data-dot", strconv.Itoa(i))
			h.close("div")
		}
		h.close("div")
		h.close("div")
		return h.err
	})
}
