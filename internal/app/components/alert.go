package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type AlertType string

const (
	AlertError   AlertType = "error"
	AlertSuccess AlertType = "success"
	AlertInfo    AlertType = "info"
)

var alertClasses = map[AlertType]string{
	AlertError:   "border-red-200 bg-red-50 text-red-800",
	AlertSuccess: "border-emerald-200 bg-emerald-50 text-emerald-800",
	AlertInfo:    "border-sky-200 bg-sky-50 text-sky-800",
}

type AlertProps struct {
	ID          string
	Type        AlertType
	Message     string
	Description string
}

// Alert is the inline feedback banner returned by form actions.
func Alert(p AlertProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "id", p.ID, "role", "alert", "data-alert", string(p.Type),
			"class", Class("mb-4 rounded-lg border p-4 text-sm", alertClasses[p.Type]))
		h.el("p", p.Message, "class", "font-medium")
		if p.Description != "" {
			h.el("p", p.Description, "class", "mt-1")
		}
		h.close("div")
		return h.err
	})
}
