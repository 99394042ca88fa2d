package models

import "time"

// UserGroup is the per-user index row mapping a member email to a group.
// Rows are written in the same transaction as the group itself.
type UserGroup struct {
	Email     string    `gorm:"primaryKey;size:255"`
	GroupID   string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the table name for UserGroup
func (UserGroup) TableName() string {
	return "user_groups"
}
