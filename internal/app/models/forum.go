package models

import "time"

type Topic struct {
	ID           string     `json:"id"`
	BranchID     string     `json:"branch_id"`
	LevelID      string     `json:"level_id"`
	SubjectID    string     `json:"subject_id,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name,omitempty"`
	AuthorRole   Role       `json:"author_role,omitempty"`
	Visibility   string     `json:"visibility"`
	ViewsCount   int        `json:"views_count"`
	RepliesCount int        `json:"replies_count"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

type FollowStatus struct {
	IsFollowing bool `json:"is_following"`
}

type FollowCounts struct {
	Followers int
	Following int
}

// Stats holds the role dependent dashboard counters. The backend returns a
// flat object whose keys depend on the role, e.g. total_users for admins or
// total_assignments for teachers.
type Stats map[string]float64
