package models

import "github.com/a-h/templ"

type NavItem struct {
	Name string
	URL  string
	Icon string
}

type Navigation struct {
	Items []NavItem
}

type LayoutTempl struct {
	Title       string
	Lang        string
	User        *User
	Nav         Navigation
	ActiveNav   string
	UnreadCount int
	Content     templ.Component
}

var MainNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
		{Name: "Forum", URL: "/forum"},
		{Name: "Dashboard", URL: "/dashboard"},
	},
}

var OfflineNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
	},
}
