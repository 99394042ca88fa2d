package repository

import (
	"context"
	"errors"
	"fmt"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"

	"gorm.io/gorm"
)

// GroupRepository handles database operations for groups
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("members.position ASC")
}

// Create creates a new group, its members and the per-user index rows in one transaction
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = models.NewID()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = clock.Now()
	}
	for i := range group.Members {
		group.Members[i].GroupID = group.ID
		group.Members[i].Position = i
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		if len(group.Members) == 0 {
			return nil
		}
		index := make([]models.UserGroup, 0, len(group.Members))
		for _, m := range group.Members {
			index = append(index, models.UserGroup{Email: m.Email, GroupID: group.ID, CreatedAt: group.CreatedAt})
		}
		if err := tx.Create(&index).Error; err != nil {
			return fmt.Errorf("index group members: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a group with its members by ID
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Preload("Members", orderedMembers).First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetByMemberEmail retrieves every group indexed under email
func (r *GroupRepository) GetByMemberEmail(ctx context.Context, email string) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.email = ?", email).
		Order("user_groups.created_at ASC, groups.id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// MarkMemberJoined sets joined=true for the member. Already joined members are left untouched.
func (r *GroupRepository) MarkMemberJoined(ctx context.Context, groupID, email string) (*models.Group, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.Where("group_id = ? AND email = ?", groupID, email).First(&member).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			var count int64
			if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperrors.ErrGroupNotFound
			}
			return apperrors.ErrMemberNotFound
		}
		if member.Joined {
			return nil
		}
		return tx.Model(&models.Member{}).
			Where("group_id = ? AND email = ?", groupID, email).
			Update("joined", true).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, groupID)
}
