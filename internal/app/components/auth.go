package components

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/kaayjang/kaayjang-web/internal/app/i18n"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

const inputClass = "mt-1 block w-full rounded-md border-2 border-gray-200 px-3 py-2 focus:border-emerald-500 focus:outline-none"

func field(h *html, lang, label, name, typ, value string, required bool) {
	h.open("div", "class", "mb-4")
	h.el("label", i18n.T(lang, label), "for", name, "class", "block text-sm font-medium text-gray-700")
	attrs := []string{"id", name, "name", name, "type", typ, "value", value, "class", inputClass, "data-testid", name + "-input"}
	if required {
		attrs = append(attrs, "required=", "")
	}
	h.open("input", attrs...)
	h.close("div")
}

// LoginPage renders the sign in form. Failed submissions are answered with
// an Alert swapped into #login-response.
func LoginPage(lang, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "class", "mx-auto max-w-md rounded-xl bg-white p-8 shadow", "data-testid", "login-page")
		h.el("h1", i18n.T(lang, "Login"), "class", "mb-6 text-3xl font-bold text-gray-800")
		h.open("div", "id", "login-response")
		h.close("div")
		h.open("form", "id", "login-form", "method", "post", "action", "/login",
			"hx-post", "/login", "hx-trigger", "submit", "hx-target", "#login-response", "hx-swap", "innerHTML")
		field(h, lang, "Email", "email", "email", email, true)
		field(h, lang, "Password", "password", "password", "", true)
		h.el("button", i18n.T(lang, "Login"), "type", "submit", "class", ButtonClass(VariantDefault, "w-full"), "data-testid", "login-submit")
		h.close("form")
		h.open("p", "class", "mt-4 text-center text-sm text-gray-600")
		h.text(i18n.T(lang, "No account yet?") + " ")
		h.el("a", i18n.T(lang, "Register"), "href", "/register", "class", "font-medium text-emerald-700")
		h.close("p")
		h.close("div")
		return h.err
	})
}

// RegisterPage renders the sign up form prefilled with req.
func RegisterPage(lang string, req models.RegisterRequest, branches []models.Branch, levels []models.Level) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "class", "mx-auto max-w-lg rounded-xl bg-white p-8 shadow", "data-testid", "register-page")
		h.el("h1", i18n.T(lang, "Register"), "class", "mb-6 text-3xl font-bold text-gray-800")
		h.open("div", "id", "register-response")
		h.close("div")
		h.open("form", "id", "register-form", "method", "post", "action", "/register",
			"hx-post", "/register", "hx-trigger", "submit", "hx-target", "#register-response", "hx-swap", "innerHTML")
		field(h, lang, "Name", "name", "text", req.Name, true)
		field(h, lang, "Email", "email", "email", req.Email, true)
		field(h, lang, "Password", "password", "password", "", true)

		h.open("div", "class", "mb-4")
		h.el("label", i18n.T(lang, "Role"), "for", "role", "class", "block text-sm font-medium text-gray-700")
		h.open("select", "id", "role", "name", "role", "class", inputClass, "data-testid", "role-select")
		for _, r := range []models.Role{models.RoleStudent, models.RoleTeacher} {
			selected := ""
			if r == req.Role || (req.Role == "" && r == models.RoleStudent) {
				selected = "selected="
			}
			h.open("option", "value", string(r), selected, "")
			h.text(i18n.T(lang, string(r)))
			h.close("option")
		}
		h.close("select")
		h.close("div")

		h.open("div", "class", "mb-4")
		h.el("label", i18n.T(lang, "Branch"), "for", "branch_id", "class", "block text-sm font-medium text-gray-700")
		h.open("select", "id", "branch_id", "name", "branch_id", "class", inputClass, "data-testid", "branch-select",
			"hx-get", "/partials/levels", "hx-target", "#level_id", "hx-trigger", "change")
		h.el("option", "", "value", "")
		for _, b := range branches {
			selected := ""
			if b.ID == req.BranchID {
				selected = "selected="
			}
			h.open("option", "value", b.ID, selected, "")
			h.text(b.LocalizedName(lang))
			h.close("option")
		}
		h.close("select")
		h.close("div")

		h.open("div", "class", "mb-4")
		h.el("label", i18n.T(lang, "Level"), "for", "level_id", "class", "block text-sm font-medium text-gray-700")
		h.open("select", "id", "level_id", "name", "level_id", "class", inputClass, "data-testid", "level-select")
		h.render(LevelOptions(lang, levels, req.LevelID))
		h.close("select")
		h.close("div")

		field(h, lang, "Field of study (optional)", "filiere", "text", req.Filiere, false)
		h.el("button", i18n.T(lang, "Register"), "type", "submit", "class", ButtonClass(VariantDefault, "w-full"), "data-testid", "register-submit")
		h.close("form")
		h.open("p", "class", "mt-4 text-center text-sm text-gray-600")
		h.text(i18n.T(lang, "Already have an account?") + " ")
		h.el("a", i18n.T(lang, "Login"), "href", "/login", "class", "font-medium text-emerald-700")
		h.close("p")
		h.close("div")
		return h.err
	})
}

// LevelOptions is the option list of the level select, swapped in when the
// branch changes.
func LevelOptions(lang string, levels []models.Level, selectedID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.el("option", "", "value", "")
		for _, l := range levels {
			selected := ""
			if l.ID == selectedID {
				selected = "selected="
			}
			h.open("option", "value", l.ID, selected, "")
			h.text(l.LocalizedName(lang))
			h.close("option")
		}
		return h.err
	})
}

// RegistrationAlert renders a registration failure with its invalid fields.
func RegistrationAlert(lang string, err *models.RegistrationError) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "id", "register-error", "role", "alert", "data-alert", string(AlertError),
			"class", Class("mb-4 rounded-lg border p-4 text-sm", alertClasses[AlertError]))
		msg := err.Message
		if msg == "" {
			msg = "Registration failed"
		}
		h.el("p", i18n.Text(lang, msg), "class", "font-medium")
		if len(err.Fields) > 0 {
			h.open("ul", "class", "mt-2 list-disc pl-5")
			for _, f := range err.Fields {
				h.el("li", f.Field+": "+f.Error, "data-field", f.Field)
			}
			h.close("ul")
		}
		h.close("div")
		return h.err
	})
}
