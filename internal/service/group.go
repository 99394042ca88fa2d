package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expensely-backend/internal/auth"
	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"
	"expensely-backend/internal/notification"
	"expensely-backend/internal/repository"

	"github.com/go-playground/validator/v10"
)

// GroupService handles business logic for groups
type GroupService struct {
	repo      repository.GroupRepositoryInterface
	notifier  Notifier
	validator *validator.Validate
}

// NewGroupService creates a new group service
func NewGroupService(repo repository.GroupRepositoryInterface, notifier Notifier, validator *validator.Validate) *GroupService {
	return &GroupService{
		repo:      repo,
		notifier:  notifier,
		validator: validator,
	}
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name    string   `json:"name" validate:"required,max=200" example:"Trip"`
	Members []string `json:"members" validate:"required,min=1,max=100,dive,required,email" example:"a@x.com,b@x.com"`
}

// RemindRequest represents the request to remind a member
type RemindRequest struct {
	MemberID string `json:"memberId" validate:"required,email" example:"b@x.com"`
}

// Create creates a group with the creator joined and every other member invited
func (s *GroupService) Create(ctx context.Context, principal *auth.Principal, req *CreateGroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Members = normalizeEmails(req.Members)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	emails := req.Members
	if hasDuplicate(emails) {
		return nil, apperrors.ErrDuplicateMember
	}

	creator := models.NormalizeEmail(principal.Email)
	members := make([]models.Member, len(emails))
	for i, email := range emails {
		members[i] = models.Member{
			Email:  email,
			Name:   models.DisplayName(email),
			Joined: email == creator,
		}
	}

	group := &models.Group{
		Name:      req.Name,
		CreatedBy: principal.UID,
		Members:   members,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"group_id": group.ID,
		"members":  len(group.Members),
	}).Info("group created")

	s.notifier.FanOut(ctx, notification.GroupInvite(group.ID, group.Name, creator), group.MemberEmails())
	return group, nil
}

// ListForUser retrieves every group the email is a member of
func (s *GroupService) ListForUser(ctx context.Context, email string) ([]models.Group, error) {
	groups, err := s.repo.GetByMemberEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetByID retrieves a group by ID
func (s *GroupService) GetByID(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// Join marks the caller's membership as accepted. Only listed members may join.
func (s *GroupService) Join(ctx context.Context, groupID, email string) (*models.Group, error) {
	group, err := s.repo.MarkMemberJoined(ctx, groupID, models.NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrMemberNotFound):
		return nil, apperrors.ErrNotGroupMember
	case errors.Is(err, apperrors.ErrGroupNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("failed to join group: %w", err)
	}
	return group, nil
}

// Remind sends a payment reminder from senderEmail to the requested member
func (s *GroupService) Remind(ctx context.Context, groupID, senderEmail string, req *RemindRequest) error {
	req.MemberID = models.NormalizeEmail(req.MemberID)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if req.MemberID == models.NormalizeEmail(senderEmail) {
		return apperrors.ErrSelfReminder
	}

	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	return s.notifier.Remind(ctx, group, senderEmail, req.MemberID)
}
