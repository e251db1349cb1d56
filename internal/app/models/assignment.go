package models

import "time"

// Assignment is homework published by a teacher for one level. Students see
// the assignments of their level, teachers the ones they created.
type Assignment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SubjectID   string     `json:"subject_id"`
	BranchID    string     `json:"branch_id"`
	LevelID     string     `json:"level_id"`
	TeacherID   string     `json:"teacher_id"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}
