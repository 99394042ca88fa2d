package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/testutils"

	"github.com/stretchr/testify/suite"
)

const (
	backendMemory   = "memory"
	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
)

// GroupRepositoryTestSuite runs the same contract against every storage backend
type GroupRepositoryTestSuite struct {
	suite.Suite
	backend       string
	baseTestSuite *testutils.BaseTestSuite
	repo          GroupRepositoryInterface
	factories     *testutils.FactorySet
	ctx           context.Context
}

func openBackend(t *testing.T, backend string) *testutils.BaseTestSuite {
	switch backend {
	case backendSQLite:
		return testutils.SetupSQLiteTestSuite(t)
	case backendPostgres:
		return testutils.SetupTestSuite(t)
	default:
		return nil
	}
}

// SetupSuite runs before all tests in the suite
func (suite *GroupRepositoryTestSuite) SetupSuite() {
	suite.baseTestSuite = openBackend(suite.T(), suite.backend)
	suite.factories = testutils.NewFactorySet()
	suite.ctx = context.Background()
}

// TearDownSuite runs after all tests in the suite
func (suite *GroupRepositoryTestSuite) TearDownSuite() {
	if suite.baseTestSuite != nil {
		suite.baseTestSuite.TeardownTestSuite()
	}
}

// SetupTest runs before each test
func (suite *GroupRepositoryTestSuite) SetupTest() {
	if suite.baseTestSuite == nil {
		suite.repo = NewMemoryGroupRepository()
		return
	}
	suite.baseTestSuite.SetupTest()
	suite.repo = NewGroupRepository(suite.baseTestSuite.DB)
}

// TestCreate tests creating a new group with its members
func (suite *GroupRepositoryTestSuite) TestCreate() {
	group := suite.factories.Group.Create()

	err := suite.repo.Create(suite.ctx, group)

	suite.NoError(err)
	suite.NotEmpty(group.ID)
	suite.NotZero(group.CreatedAt)
	for i, m := range group.Members {
		suite.Equal(group.ID, m.GroupID)
		suite.Equal(i, m.Position)
	}
}

// TestGetByID tests retrieving a group with members in insertion order
func (suite *GroupRepositoryTestSuite) TestGetByID() {
	creator := suite.factories.Email.Create()
	invitee := suite.factories.Email.Create()
	group := suite.factories.Group.WithMembers(creator, creator, invitee)
	suite.Require().NoError(suite.repo.Create(suite.ctx, group))

	retrieved, err := suite.repo.GetByID(suite.ctx, group.ID)

	suite.Require().NoError(err)
	suite.Equal(group.ID, retrieved.ID)
	suite.Equal(group.Name, retrieved.Name)
	suite.Equal(group.CreatedBy, retrieved.CreatedBy)
	suite.True(group.CreatedAt.Equal(retrieved.CreatedAt))
	suite.Require().Len(retrieved.Members, 2)
	suite.Equal(creator, retrieved.Members[0].Email)
	suite.True(retrieved.Members[0].Joined)
	suite.Equal(invitee, retrieved.Members[1].Email)
	suite.False(retrieved.Members[1].Joined)
	suite.Equal(models.DisplayName(invitee), retrieved.Members[1].Name)
}

// TestGetByIDNotFound tests retrieving a non-existent group
func (suite *GroupRepositoryTestSuite) TestGetByIDNotFound() {
	group, err := suite.repo.GetByID(suite.ctx, models.NewID())

	suite.ErrorIs(err, apperrors.ErrGroupNotFound)
	suite.Nil(group)
}

// TestGetByMemberEmail tests that every member is indexed under the new group
func (suite *GroupRepositoryTestSuite) TestGetByMemberEmail() {
	a := suite.factories.Email.Create()
	b := suite.factories.Email.Create()
	c := suite.factories.Email.Create()

	first := suite.factories.Group.WithMembers(a, a, b)
	suite.Require().NoError(suite.repo.Create(suite.ctx, first))
	second := suite.factories.Group.WithMembers(b, b, c)
	suite.Require().NoError(suite.repo.Create(suite.ctx, second))

	groupsA, err := suite.repo.GetByMemberEmail(suite.ctx, a)
	suite.Require().NoError(err)
	suite.Require().Len(groupsA, 1)
	suite.Equal(first.ID, groupsA[0].ID)

	groupsB, err := suite.repo.GetByMemberEmail(suite.ctx, b)
	suite.Require().NoError(err)
	suite.Require().Len(groupsB, 2)
	suite.Equal(first.ID, groupsB[0].ID)
	suite.Equal(second.ID, groupsB[1].ID)
	suite.Len(groupsB[1].Members, 2)
}

// TestGetByMemberEmailUnknown tests that an unknown email yields an empty list
func (suite *GroupRepositoryTestSuite) TestGetByMemberEmailUnknown() {
	groups, err := suite.repo.GetByMemberEmail(suite.ctx, "nobody@example.com")

	suite.NoError(err)
	suite.NotNil(groups)
	suite.Empty(groups)
}

// TestMarkMemberJoined tests the joined transition and its idempotency
func (suite *GroupRepositoryTestSuite) TestMarkMemberJoined() {
	creator := suite.factories.Email.Create()
	invitee := suite.factories.Email.Create()
	group := suite.factories.Group.WithMembers(creator, creator, invitee)
	suite.Require().NoError(suite.repo.Create(suite.ctx, group))

	updated, err := suite.repo.MarkMemberJoined(suite.ctx, group.ID, invitee)
	suite.Require().NoError(err)
	suite.True(updated.Member(invitee).Joined)
	suite.True(updated.Member(creator).Joined)

	again, err := suite.repo.MarkMemberJoined(suite.ctx, group.ID, invitee)
	suite.Require().NoError(err)
	suite.True(again.Member(invitee).Joined)
	suite.Len(again.Members, 2)
}

// TestMarkMemberJoinedErrors tests unknown group and non-member paths
func (suite *GroupRepositoryTestSuite) TestMarkMemberJoinedErrors() {
	group := suite.factories.Group.Create()
	suite.Require().NoError(suite.repo.Create(suite.ctx, group))

	_, err := suite.repo.MarkMemberJoined(suite.ctx, models.NewID(), group.Members[0].Email)
	suite.ErrorIs(err, apperrors.ErrGroupNotFound)

	_, err = suite.repo.MarkMemberJoined(suite.ctx, group.ID, "stranger@example.com")
	suite.ErrorIs(err, apperrors.ErrMemberNotFound)
}

// TestReturnedGroupsAreCopies tests that callers cannot mutate stored state
func (suite *GroupRepositoryTestSuite) TestReturnedGroupsAreCopies() {
	group := suite.factories.Group.Create()
	suite.Require().NoError(suite.repo.Create(suite.ctx, group))

	retrieved, err := suite.repo.GetByID(suite.ctx, group.ID)
	suite.Require().NoError(err)
	retrieved.Members[1].Joined = true
	retrieved.Name = "changed"

	again, err := suite.repo.GetByID(suite.ctx, group.ID)
	suite.Require().NoError(err)
	suite.False(again.Members[1].Joined)
	suite.Equal(group.Name, again.Name)
}

// TestConcurrentCreate tests that concurrent creations keep the per-user index complete
func (suite *GroupRepositoryTestSuite) TestConcurrentCreate() {
	shared := suite.factories.Email.Create()
	const n = 20

	groups := make([]*models.Group, n)
	for i := range groups {
		groups[i] = suite.factories.Group.WithMembers(shared, shared, fmt.Sprintf("member-%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, g := range groups {
		wg.Add(1)
		go func(g *models.Group) {
			defer wg.Done()
			errs <- suite.repo.Create(suite.ctx, g)
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.NoError(err)
	}

	indexed, err := suite.repo.GetByMemberEmail(suite.ctx, shared)
	suite.NoError(err)
	suite.Len(indexed, n)
}

func TestGroupRepositoryMemory(t *testing.T) {
	suite.Run(t, &GroupRepositoryTestSuite{backend: backendMemory})
}

func TestGroupRepositorySQLite(t *testing.T) {
	suite.Run(t, &GroupRepositoryTestSuite{backend: backendSQLite})
}
