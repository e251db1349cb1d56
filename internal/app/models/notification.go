package models

import "time"

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	MessageEN string     `json:"message_en"`
	Link      string     `json:"link,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// LocalizedMessage picks the message matching lang, French being the
// backend's primary language.
func (n Notification) LocalizedMessage(lang string) string {
	if lang == "en" && n.MessageEN != "" {
		return n.MessageEN
	}
	return n.Message
}

type UnreadCount struct {
	Count int `json:"count"`
}

// NotificationSettings are the per-user delivery preferences. The backend
// creates them with every switch on the first time they are read.
type NotificationSettings struct {
	EmailEnabled   bool `json:"email_enabled"`
	InAppEnabled   bool `json:"in_app_enabled"`
	NewPosts       bool `json:"new_posts"`
	NewAssignments bool `json:"new_assignments"`
	NewFollowers   bool `json:"new_followers"`
	ForumReplies   bool `json:"forum_replies"`
}

// NotificationSetting is one switch of NotificationSettings, keyed by its
// JSON name.
type NotificationSetting struct {
	Key   string
	Label string
	On    bool
}

// Switches lists the settings in display order.
func (s NotificationSettings) Switches() []NotificationSetting {
	return []NotificationSetting{
		{"email_enabled", "Email notifications", s.EmailEnabled},
		{"in_app_enabled", "In-app notifications", s.InAppEnabled},
		{"new_posts", "New posts", s.NewPosts},
		{"new_assignments", "New assignments", s.NewAssignments},
		{"new_followers", "New followers", s.NewFollowers},
		{"forum_replies", "Forum replies", s.ForumReplies},
	}
}

// NotificationSettingsFromKeys builds settings from a predicate over the
// switch keys, e.g. the checkboxes present in a submitted form.
func NotificationSettingsFromKeys(on func(key string) bool) NotificationSettings {
	return NotificationSettings{
		EmailEnabled:   on("email_enabled"),
		InAppEnabled:   on("in_app_enabled"),
		NewPosts:       on("new_posts"),
		NewAssignments: on("new_assignments"),
		NewFollowers:   on("new_followers"),
		ForumReplies:   on("forum_replies"),
	}
}

type AdBanner struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Link     string `json:"link,omitempty"`
	IsActive bool   `json:"is_active"`
}
