package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a named set of members sharing expenses. Membership is fixed at
// creation; only Member.Joined changes afterwards.
type Group struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	CreatedBy string    `json:"createdBy" gorm:"not null;size:128"`
	CreatedAt time.Time `json:"createdAt"`

	// Relationships
	Members []Member `json:"members" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "groups"
}

// BeforeCreate sets the ID if not already set
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = NewID()
	}
	return nil
}

// HasMember reports whether email belongs to the group.
func (g *Group) HasMember(email string) bool {
	return g.Member(email) != nil
}

// Member returns the member with the given email, or nil.
func (g *Group) Member(email string) *Member {
	for i := range g.Members {
		if g.Members[i].Email == email {
			return &g.Members[i]
		}
	}
	return nil
}

// MemberEmails lists member emails in member order.
func (g *Group) MemberEmails() []string {
	emails := make([]string, len(g.Members))
	for i, m := range g.Members {
		emails[i] = m.Email
	}
	return emails
}
