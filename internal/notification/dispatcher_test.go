package notification_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/mocks"
	"expensely-backend/internal/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type DispatcherTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	publisher *mocks.MockPublisher
	mailer    *mocks.MockMailer
	throttle  *mocks.MockThrottle
	registry  *prometheus.Registry
	group     *models.Group
}

func (suite *DispatcherTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.publisher = mocks.NewMockPublisher(suite.ctrl)
	suite.mailer = mocks.NewMockMailer(suite.ctrl)
	suite.throttle = mocks.NewMockThrottle(suite.ctrl)
	suite.registry = prometheus.NewRegistry()
	suite.group = &models.Group{
		ID:   "g1",
		Name: "Trip",
		Members: []models.Member{
			{Email: "a@x.com", Name: "a", Joined: true},
			{Email: "b@x.com", Name: "b"},
			{Email: "c@x.com", Name: "c"},
		},
	}
}

func (suite *DispatcherTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *DispatcherTestSuite) dispatcher(opts notification.Options) *notification.Dispatcher {
	return notification.NewDispatcher(suite.publisher, suite.mailer, suite.throttle,
		notification.NewMetrics(suite.registry), opts)
}

// recordTopics captures published topics from concurrent sends.
func recordTopics(mu *sync.Mutex, topics *[]string, fail map[string]error) func(context.Context, notification.Message) error {
	return func(_ context.Context, msg notification.Message) error {
		mu.Lock()
		*topics = append(*topics, msg.Topic)
		mu.Unlock()
		return fail[msg.Topic]
	}
}

func (suite *DispatcherTestSuite) TestFanOutExcludesActor() {
	var mu sync.Mutex
	var topics []string
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(recordTopics(&mu, &topics, nil)).Times(2)

	event := notification.NewExpense("g1", "Trip", "e1", "a@x.com", "Dinner", decimal.NewFromInt(40))
	report := suite.dispatcher(notification.Options{}).FanOut(context.Background(), event, suite.group.MemberEmails())

	suite.ElementsMatch([]string{"user_b_x_com", "user_c_x_com"}, topics)
	suite.Equal([]string{"b@x.com", "c@x.com"}, report.Recipients())
	suite.Equal(2, report.Delivered())
	suite.Empty(report.Failed())
}

func (suite *DispatcherTestSuite) TestFanOutDeduplicatesAndNormalizes() {
	var mu sync.Mutex
	var topics []string
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(recordTopics(&mu, &topics, nil)).Times(1)

	event := notification.ChatMessage("g1", "Trip", "A@x.com", "hi")
	report := suite.dispatcher(notification.Options{}).
		FanOut(context.Background(), event, []string{"a@x.com", "b@x.com", " B@X.com ", ""})

	suite.Equal([]string{"user_b_x_com"}, topics)
	suite.Equal([]string{"b@x.com"}, report.Recipients())
}

func (suite *DispatcherTestSuite) TestFanOutNoRecipients() {
	event := notification.GroupInvite("g1", "Solo", "a@x.com")
	report := suite.dispatcher(notification.Options{}).FanOut(context.Background(), event, []string{"a@x.com"})

	suite.Empty(report.Outcomes)
	suite.Equal(notification.EventGroupInvite, report.Event)
}

func (suite *DispatcherTestSuite) TestFanOutIsolatesFailures() {
	var mu sync.Mutex
	var topics []string
	fail := map[string]error{"user_b_x_com": errors.New("unregistered topic")}
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(recordTopics(&mu, &topics, fail)).Times(3)

	group := &models.Group{ID: "g1", Name: "Trip", Members: append(suite.group.Members, models.Member{Email: "d@x.com"})}
	event := notification.NewExpense("g1", "Trip", "e1", "a@x.com", "Dinner", decimal.NewFromInt(40))
	report := suite.dispatcher(notification.Options{}).FanOut(context.Background(), event, group.MemberEmails())

	suite.ElementsMatch([]string{"user_b_x_com", "user_c_x_com", "user_d_x_com"}, topics)
	suite.Require().Len(report.Outcomes, 3)
	suite.Require().Len(report.Failed(), 1)
	failed := report.Failed()[0]
	suite.Equal("b@x.com", failed.Email)
	suite.True(apperrors.IsDelivery(failed.Err))
	suite.Equal(2, report.Delivered())

	expected := `
# HELP expensely_notifications_total Push notification attempts by event type and result.
# TYPE expensely_notifications_total counter
expensely_notifications_total{event="NEW_EXPENSE",result="failed"} 1
expensely_notifications_total{event="NEW_EXPENSE",result="sent"} 2
`
	suite.NoError(testutil.GatherAndCompare(suite.registry, strings.NewReader(expected), notification.MetricNotificationsTotal))
}

func (suite *DispatcherTestSuite) TestFanOutTimesOutSlowRecipient() {
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg notification.Message) error {
			if msg.Topic == "user_b_x_com" {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		}).Times(2)

	event := notification.ChatMessage("g1", "Trip", "a@x.com", "hi")
	start := time.Now()
	report := suite.dispatcher(notification.Options{Timeout: 30 * time.Millisecond}).
		FanOut(context.Background(), event, suite.group.MemberEmails())

	suite.Less(time.Since(start), 2*time.Second)
	suite.Require().Len(report.Failed(), 1)
	suite.True(errors.Is(report.Failed()[0].Err, context.DeadlineExceeded))
	suite.Equal(1, report.Delivered())
}

func (suite *DispatcherTestSuite) TestFanOutSurvivesCallerCancellation() {
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ notification.Message) error {
			return ctx.Err()
		}).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	event := notification.GroupInvite("g1", "Trip", "a@x.com")
	report := suite.dispatcher(notification.Options{}).FanOut(ctx, event, suite.group.MemberEmails())

	suite.Equal(2, report.Delivered())
}

func (suite *DispatcherTestSuite) TestFanOutRespectsConcurrencyLimit() {
	var inFlight, peak atomic.Int32
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, notification.Message) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}).Times(6)

	recipients := []string{"b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com", "g@x.com"}
	event := notification.GroupInvite("g1", "Trip", "a@x.com")
	report := suite.dispatcher(notification.Options{MaxConcurrency: 2}).FanOut(context.Background(), event, recipients)

	suite.Equal(6, report.Delivered())
	suite.LessOrEqual(peak.Load(), int32(2))
}

func (suite *DispatcherTestSuite) TestRemindSendsPushAndEmail() {
	gomock.InOrder(
		suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg notification.Message) error {
				suite.Equal("user_b_x_com", msg.Topic)
				suite.Equal("Payment Reminder", msg.Title)
				suite.Equal(`a@x.com sent you a reminder for "Trip"`, msg.Body)
				suite.Equal("a@x.com", msg.Data["senderEmail"])
				return nil
			}),
		suite.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email notification.Email) error {
				suite.Equal("b@x.com", email.To)
				suite.Equal("Payment Reminder - Trip", email.Subject)
				return nil
			}),
	)

	err := suite.dispatcher(notification.Options{}).Remind(context.Background(), suite.group, "a@x.com", "B@x.com")
	suite.NoError(err)

	expected := `
# HELP expensely_emails_total Transactional email attempts by result.
# TYPE expensely_emails_total counter
expensely_emails_total{result="sent"} 1
`
	suite.NoError(testutil.GatherAndCompare(suite.registry, strings.NewReader(expected), notification.MetricEmailsTotal))
}

func (suite *DispatcherTestSuite) TestRemindSelfIsRejectedBeforeDispatch() {
	err := suite.dispatcher(notification.Options{ReminderCooldown: time.Minute}).
		Remind(context.Background(), suite.group, "a@x.com", "a@x.com")

	suite.ErrorIs(err, apperrors.ErrSelfReminder)
	suite.True(apperrors.IsValidation(err))
}

func (suite *DispatcherTestSuite) TestRemindNonMember() {
	err := suite.dispatcher(notification.Options{}).
		Remind(context.Background(), suite.group, "a@x.com", "stranger@x.com")

	suite.ErrorIs(err, apperrors.ErrMemberNotFound)
}

func (suite *DispatcherTestSuite) TestRemindPushFailureSkipsEmail() {
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("fcm down"))

	err := suite.dispatcher(notification.Options{}).
		Remind(context.Background(), suite.group, "a@x.com", "b@x.com")

	suite.Require().Error(err)
	suite.True(apperrors.IsDelivery(err))
	suite.Contains(err.Error(), "push delivery to b@x.com failed")
}

func (suite *DispatcherTestSuite) TestRemindEmailFailure() {
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	suite.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp auth failed"))

	err := suite.dispatcher(notification.Options{}).
		Remind(context.Background(), suite.group, "a@x.com", "b@x.com")

	suite.Require().Error(err)
	suite.True(apperrors.IsDelivery(err))
	suite.Equal(apperrors.CodeDeliveryFailure, apperrors.Code(err))
}

func (suite *DispatcherTestSuite) TestRemindThrottled() {
	suite.throttle.EXPECT().Allow(gomock.Any(), "g1:a@x.com:b@x.com", time.Minute).Return(false, nil)

	err := suite.dispatcher(notification.Options{ReminderCooldown: time.Minute}).
		Remind(context.Background(), suite.group, "a@x.com", "b@x.com")

	suite.ErrorIs(err, apperrors.ErrReminderThrottled)
	suite.True(apperrors.IsRateLimited(err))
}

func (suite *DispatcherTestSuite) TestRemindReleasesSlotOnFailure() {
	gomock.InOrder(
		suite.throttle.EXPECT().Allow(gomock.Any(), "g1:a@x.com:b@x.com", time.Minute).Return(true, nil),
		suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("fcm down")),
		suite.throttle.EXPECT().Release(gomock.Any(), "g1:a@x.com:b@x.com").Return(nil),
	)

	err := suite.dispatcher(notification.Options{ReminderCooldown: time.Minute}).
		Remind(context.Background(), suite.group, "a@x.com", "b@x.com")

	suite.True(apperrors.IsDelivery(err))
}

func (suite *DispatcherTestSuite) TestRemindThrottleOutageFailsOpen() {
	suite.throttle.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
	suite.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	suite.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	err := suite.dispatcher(notification.Options{ReminderCooldown: time.Minute}).
		Remind(context.Background(), suite.group, "a@x.com", "b@x.com")

	suite.NoError(err)
}

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func TestRemindWithMemoryThrottle(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	mailer := mocks.NewMockMailer(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	group := &models.Group{ID: "g1", Name: "Trip", Members: []models.Member{{Email: "a@x.com"}, {Email: "b@x.com"}}}
	d := notification.NewDispatcher(publisher, mailer, notification.NewMemoryThrottle(), nil,
		notification.Options{ReminderCooldown: time.Hour})

	require.NoError(t, d.Remind(context.Background(), group, "a@x.com", "b@x.com"))
	err := d.Remind(context.Background(), group, "a@x.com", "b@x.com")
	assert.True(t, apperrors.IsRateLimited(err))
}
