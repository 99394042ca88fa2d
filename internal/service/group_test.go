package service_test

import (
	"context"
	"errors"
	"testing"

	"expensely-backend/internal/auth"
	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/mocks"
	"expensely-backend/internal/notification"
	"expensely-backend/internal/service"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// GroupServiceTestSuite defines the test suite for GroupService
type GroupServiceTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockRepo     *mocks.MockGroupRepositoryInterface
	mockNotifier *mocks.MockNotifier
	groupService *service.GroupService
	ctx          context.Context
	creator      *auth.Principal
}

// SetupTest sets up the test suite
func (suite *GroupServiceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockRepo = mocks.NewMockGroupRepositoryInterface(suite.ctrl)
	suite.mockNotifier = mocks.NewMockNotifier(suite.ctrl)
	suite.groupService = service.NewGroupService(suite.mockRepo, suite.mockNotifier, service.NewValidator())
	suite.ctx = context.Background()
	suite.creator = &auth.Principal{UID: "uid-a", Email: "a@x.com"}
}

// TearDownTest cleans up after each test
func (suite *GroupServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *GroupServiceTestSuite) TestCreate() {
	req := &service.CreateGroupRequest{Name: "  Trip ", Members: []string{"A@x.com", "b@x.com", "c@x.com"}}

	suite.mockRepo.EXPECT().Create(suite.ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, g *models.Group) error {
			g.ID = "g1"
			return nil
		})
	suite.mockNotifier.EXPECT().
		FanOut(suite.ctx, gomock.Any(), []string{"a@x.com", "b@x.com", "c@x.com"}).
		DoAndReturn(func(_ context.Context, event notification.Event, _ []string) notification.Report {
			suite.Equal(notification.EventGroupInvite, event.Type)
			suite.Equal("a@x.com", event.Actor)
			suite.Equal("g1", event.Data["groupId"])
			return notification.Report{Event: event.Type}
		})

	group, err := suite.groupService.Create(suite.ctx, suite.creator, req)

	suite.Require().NoError(err)
	suite.Equal("Trip", group.Name)
	suite.Equal("uid-a", group.CreatedBy)
	suite.Require().Len(group.Members, 3)
	suite.Equal(models.Member{Email: "a@x.com", Name: "a", Joined: true}, stripGroupID(group.Members[0]))
	suite.False(group.Members[1].Joined)
	suite.False(group.Members[2].Joined)
	suite.Equal("b", group.Members[1].Name)
}

func (suite *GroupServiceTestSuite) TestCreateWithoutCreatorInMembers() {
	req := &service.CreateGroupRequest{Name: "Gift", Members: []string{"b@x.com"}}

	suite.mockRepo.EXPECT().Create(suite.ctx, gomock.Any()).Return(nil)
	suite.mockNotifier.EXPECT().FanOut(suite.ctx, gomock.Any(), []string{"b@x.com"}).Return(notification.Report{})

	group, err := suite.groupService.Create(suite.ctx, suite.creator, req)

	suite.Require().NoError(err)
	suite.Len(group.Members, 1)
	suite.False(group.Members[0].Joined)
}

func (suite *GroupServiceTestSuite) TestCreateValidation() {
	testCases := []struct {
		name  string
		req   *service.CreateGroupRequest
		field string
	}{
		{name: "empty name", req: &service.CreateGroupRequest{Name: "", Members: []string{"b@x.com"}}, field: "name"},
		{name: "blank name", req: &service.CreateGroupRequest{Name: "   ", Members: []string{"b@x.com"}}, field: "name"},
		{name: "no members", req: &service.CreateGroupRequest{Name: "Trip", Members: []string{}}, field: "members"},
		{name: "nil members", req: &service.CreateGroupRequest{Name: "Trip"}, field: "members"},
		{name: "invalid email", req: &service.CreateGroupRequest{Name: "Trip", Members: []string{"not-an-email"}}, field: "members[0]"},
		{name: "duplicate member", req: &service.CreateGroupRequest{Name: "Trip", Members: []string{"b@x.com", "B@x.com"}}, field: "members"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			group, err := suite.groupService.Create(suite.ctx, suite.creator, tc.req)

			suite.Nil(group)
			suite.Require().Error(err)
			suite.True(apperrors.IsValidation(err))
			var verr *apperrors.ValidationError
			suite.Require().True(errors.As(err, &verr))
			suite.Equal(tc.field, verr.Field)
		})
	}
}

func (suite *GroupServiceTestSuite) TestCreateRepositoryError() {
	suite.mockRepo.EXPECT().Create(suite.ctx, gomock.Any()).Return(errors.New("connection reset"))

	group, err := suite.groupService.Create(suite.ctx, suite.creator,
		&service.CreateGroupRequest{Name: "Trip", Members: []string{"a@x.com"}})

	suite.Nil(group)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to create group")
	suite.Equal(apperrors.CodeInternal, apperrors.Code(err))
}

func (suite *GroupServiceTestSuite) TestListForUserNormalizesEmail() {
	groups := []models.Group{{ID: "g1", Name: "Trip"}}
	suite.mockRepo.EXPECT().GetByMemberEmail(suite.ctx, "b@x.com").Return(groups, nil)

	result, err := suite.groupService.ListForUser(suite.ctx, " B@X.com")

	suite.NoError(err)
	suite.Equal(groups, result)
}

func (suite *GroupServiceTestSuite) TestGetByIDNotFound() {
	suite.mockRepo.EXPECT().GetByID(suite.ctx, "missing").Return(nil, apperrors.ErrGroupNotFound)

	group, err := suite.groupService.GetByID(suite.ctx, "missing")

	suite.Nil(group)
	suite.ErrorIs(err, apperrors.ErrGroupNotFound)
}

func (suite *GroupServiceTestSuite) TestJoin() {
	joined := &models.Group{ID: "g1", Members: []models.Member{{Email: "b@x.com", Joined: true}}}
	suite.mockRepo.EXPECT().MarkMemberJoined(suite.ctx, "g1", "b@x.com").Return(joined, nil)

	group, err := suite.groupService.Join(suite.ctx, "g1", "B@x.com")

	suite.NoError(err)
	suite.True(group.Members[0].Joined)
}

func (suite *GroupServiceTestSuite) TestJoinNonMemberIsForbidden() {
	suite.mockRepo.EXPECT().MarkMemberJoined(suite.ctx, "g1", "z@x.com").Return(nil, apperrors.ErrMemberNotFound)

	_, err := suite.groupService.Join(suite.ctx, "g1", "z@x.com")

	suite.ErrorIs(err, apperrors.ErrNotGroupMember)
	suite.Equal(apperrors.CodeForbidden, apperrors.Code(err))
}

func (suite *GroupServiceTestSuite) TestRemind() {
	group := &models.Group{ID: "g1", Name: "Trip"}
	suite.mockRepo.EXPECT().GetByID(suite.ctx, "g1").Return(group, nil)
	suite.mockNotifier.EXPECT().Remind(suite.ctx, group, "a@x.com", "b@x.com").Return(nil)

	err := suite.groupService.Remind(suite.ctx, "g1", "a@x.com", &service.RemindRequest{MemberID: "b@x.com"})

	suite.NoError(err)
}

func (suite *GroupServiceTestSuite) TestRemindSelfTouchesNothing() {
	err := suite.groupService.Remind(suite.ctx, "g1", "a@x.com", &service.RemindRequest{MemberID: "A@x.com"})

	suite.ErrorIs(err, apperrors.ErrSelfReminder)
}

func (suite *GroupServiceTestSuite) TestRemindUnknownGroup() {
	suite.mockRepo.EXPECT().GetByID(suite.ctx, "missing").Return(nil, apperrors.ErrGroupNotFound)

	err := suite.groupService.Remind(suite.ctx, "missing", "a@x.com", &service.RemindRequest{MemberID: "b@x.com"})

	suite.True(apperrors.IsNotFound(err))
}

func (suite *GroupServiceTestSuite) TestRemindMissingMemberID() {
	err := suite.groupService.Remind(suite.ctx, "g1", "a@x.com", &service.RemindRequest{})

	suite.True(apperrors.IsValidation(err))
}

func (suite *GroupServiceTestSuite) TestRemindDeliveryFailurePropagates() {
	group := &models.Group{ID: "g1", Name: "Trip"}
	delivery := apperrors.NewDeliveryError("email", "b@x.com", errors.New("relay down"))
	suite.mockRepo.EXPECT().GetByID(suite.ctx, "g1").Return(group, nil)
	suite.mockNotifier.EXPECT().Remind(suite.ctx, group, "a@x.com", "b@x.com").Return(delivery)

	err := suite.groupService.Remind(suite.ctx, "g1", "a@x.com", &service.RemindRequest{MemberID: "b@x.com"})

	suite.True(apperrors.IsDelivery(err))
}

func stripGroupID(m models.Member) models.Member {
	m.GroupID = ""
	m.Position = 0
	return m
}

// TestGroupServiceTestSuite runs the test suite
func TestGroupServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceTestSuite))
}
