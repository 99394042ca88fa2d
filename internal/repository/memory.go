package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
)

// MemoryGroupRepository keeps groups and the per-user index in process memory.
// State is lost on restart.
type MemoryGroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*models.Group
	index  map[string][]string
}

// NewMemoryGroupRepository creates an empty in-memory group repository
func NewMemoryGroupRepository() *MemoryGroupRepository {
	return &MemoryGroupRepository{
		groups: make(map[string]*models.Group),
		index:  make(map[string][]string),
	}
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	return &c
}

// Create stores the group and appends its id to every member's index under one lock
func (r *MemoryGroupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[group.ID]; exists {
		return fmt.Errorf("insert group: duplicate id %s", group.ID)
	}
	r.groups[group.ID] = cloneGroup(group)
	for _, m := range group.Members {
		if !slices.Contains(r.index[m.Email], group.ID) {
			r.index[m.Email] = append(r.index[m.Email], group.ID)
		}
	}
	return nil
}

// GetByID retrieves a copy of the group
func (r *MemoryGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	return cloneGroup(g), nil
}

// GetByMemberEmail retrieves copies of every group indexed under email
func (r *MemoryGroupRepository) GetByMemberEmail(ctx context.Context, email string) ([]models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.index[email]
	groups := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := r.groups[id]; ok {
			groups = append(groups, *cloneGroup(g))
		}
	}
	return groups, nil
}

// MarkMemberJoined flips joined for the member under the write lock
func (r *MemoryGroupRepository) MarkMemberJoined(ctx context.Context, groupID, email string) (*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	m := g.Member(email)
	if m == nil {
		return nil, apperrors.ErrMemberNotFound
	}
	m.Joined = true
	return cloneGroup(g), nil
}

// MemoryExpenseRepository keeps expenses partitioned by group in creation order.
type MemoryExpenseRepository struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	byGroup map[string][]models.Expense
}

// NewMemoryExpenseRepository creates an empty in-memory expense repository
func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{
		ids:     make(map[string]struct{}),
		byGroup: make(map[string][]models.Expense),
	}
}

// Create appends the expense to its group's partition
func (r *MemoryExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if expense.ID == "" {
		expense.ID = models.NewID()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = clock.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[expense.ID]; exists {
		return fmt.Errorf("insert expense: duplicate id %s", expense.ID)
	}
	stored := *expense
	stored.SplitBetween = slices.Clone(expense.SplitBetween)
	r.ids[expense.ID] = struct{}{}
	r.byGroup[expense.GroupID] = append(r.byGroup[expense.GroupID], stored)
	return nil
}

// GetByGroupID retrieves copies of the group's expenses, oldest first
func (r *MemoryExpenseRepository) GetByGroupID(ctx context.Context, groupID string) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byGroup[groupID]
	expenses := make([]models.Expense, len(stored))
	for i, e := range stored {
		expenses[i] = e
		expenses[i].SplitBetween = slices.Clone(e.SplitBetween)
	}
	return expenses, nil
}
