package models

import "strings"

// Member is an email-identified participant of a Group.
type Member struct {
	GroupID  string `json:"-" gorm:"primaryKey;size:36"`
	Email    string `json:"email" gorm:"primaryKey;size:255"`
	Name     string `json:"name" gorm:"size:255"`
	Joined   bool   `json:"joined" gorm:"not null;default:false"`
	Position int    `json:"-" gorm:"not null;default:0"`
}

// TableName returns the table name for Member
func (Member) TableName() string {
	return "members"
}

// DisplayName derives a member name from the email local part.
func DisplayName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// NormalizeEmail trims and lower-cases an address before storage or comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
