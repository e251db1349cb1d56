package models

// Branch is an education track, e.g. "Lycée".
type Branch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameEN   string `json:"name_en"`
	IsActive bool   `json:"is_active"`
}

// Level is a class level within a branch.
type Level struct {
	ID       string `json:"id"`
	BranchID string `json:"branch_id"`
	Name     string `json:"name"`
	NameEN   string `json:"name_en"`
}

// Subject is a taught subject, e.g. "Mathématiques". BranchID and LevelID
// are empty for subjects offered everywhere.
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameEN   string `json:"name_en"`
	BranchID string `json:"branch_id,omitempty"`
	LevelID  string `json:"level_id,omitempty"`
}

// LocalizedName returns the English name when lang is en and one exists.
func (b Branch) LocalizedName(lang string) string {
	if lang == "en" && b.NameEN != "" {
		return b.NameEN
	}
	return b.Name
}

func (l Level) LocalizedName(lang string) string {
	if lang == "en" && l.NameEN != "" {
		return l.NameEN
	}
	return l.Name
}

func (s Subject) LocalizedName(lang string) string {
	if lang == "en" && s.NameEN != "" {
		return s.NameEN
	}
	return s.Name
}
