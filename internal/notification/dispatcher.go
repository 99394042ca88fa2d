package notification

import (
	"context"
	"time"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"

	"golang.org/x/sync/errgroup"
)

const (
	channelPush  = "push"
	channelEmail = "email"

	defaultTimeout        = 5 * time.Second
	defaultMaxConcurrency = 8
)

// Options tunes a Dispatcher.
type Options struct {
	// Timeout bounds every single outbound send.
	Timeout time.Duration
	// MaxConcurrency caps in-flight sends of one fan-out.
	MaxConcurrency int
	// ReminderCooldown is the minimum gap between two reminders for the
	// same group, sender and member. Zero disables throttling.
	ReminderCooldown time.Duration
}

// Outcome is the delivery result for one recipient.
type Outcome struct {
	Email string
	Topic string
	Err   error
}

// Report collects the outcomes of one fan-out in recipient order.
type Report struct {
	Event    EventType
	Outcomes []Outcome
}

// Recipients lists the emails that were attempted
func (r Report) Recipients() []string {
	emails := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		emails[i] = o.Email
	}
	return emails
}

// Failed returns the outcomes whose send failed
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Delivered counts successful sends
func (r Report) Delivered() int {
	return len(r.Outcomes) - len(r.Failed())
}

// Dispatcher turns domain events into push notifications and emails.
type Dispatcher struct {
	publisher Publisher
	mailer    Mailer
	throttle  Throttle
	metrics   *Metrics
	opts      Options
}

// NewDispatcher creates a dispatcher. throttle and metrics may be nil.
func NewDispatcher(publisher Publisher, mailer Mailer, throttle Throttle, metrics *Metrics, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	return &Dispatcher{
		publisher: publisher,
		mailer:    mailer,
		throttle:  throttle,
		metrics:   metrics,
		opts:      opts,
	}
}

// eligible drops the actor and duplicates, keeping first-seen order.
func eligible(actor string, recipients []string) []string {
	actor = models.NormalizeEmail(actor)
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		email := models.NormalizeEmail(r)
		if email == "" || email == actor {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// FanOut sends event to every recipient except its actor. Each send is
// independent: a failed recipient is recorded in the report and logged,
// and never stops the others. Sends survive cancellation of ctx because
// the action that produced the event has already been committed.
func (d *Dispatcher) FanOut(ctx context.Context, event Event, recipients []string) Report {
	emails := eligible(event.Actor, recipients)
	report := Report{Event: event.Type, Outcomes: make([]Outcome, len(emails))}
	if len(emails) == 0 {
		return report
	}

	sendCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(d.opts.MaxConcurrency)
	for i, email := range emails {
		topic := Topic(email)
		report.Outcomes[i] = Outcome{Email: email, Topic: topic}
		g.Go(func() error {
			if err := d.publish(sendCtx, event.Message(topic)); err != nil {
				report.Outcomes[i].Err = apperrors.NewDeliveryError(channelPush, email, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	log := logger.WithContext(ctx).WithField("event", string(event.Type))
	for _, o := range report.Outcomes {
		if o.Err != nil {
			d.metrics.notification(event.Type, ResultFailed)
			log.WithError(o.Err).WithField("topic", o.Topic).Warn("notification delivery failed")
			continue
		}
		d.metrics.notification(event.Type, ResultSent)
	}
	log.WithFields(map[string]interface{}{
		"recipients": len(report.Outcomes),
		"delivered":  report.Delivered(),
	}).Info("notification fan-out complete")
	return report
}

// Remind sends one payment reminder push and one reminder email to
// memberEmail. Self-reminders and non-members are rejected before any
// delivery is attempted; a failure of either channel is returned.
func (d *Dispatcher) Remind(ctx context.Context, group *models.Group, senderEmail, memberEmail string) error {
	sender := models.NormalizeEmail(senderEmail)
	member := models.NormalizeEmail(memberEmail)
	if sender == member {
		return apperrors.ErrSelfReminder
	}
	if !group.HasMember(member) {
		return apperrors.ErrMemberNotFound
	}

	log := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"group_id": group.ID,
		"member":   member,
	})
	event := PaymentReminder(group.ID, group.Name, sender)

	key := group.ID + ":" + sender + ":" + member
	reserved, err := d.reserve(ctx, key)
	if err != nil {
		// The throttle store is advisory; an outage must not block reminders.
		log.WithError(err).Warn("reminder throttle unavailable")
	} else if !reserved && d.throttled() {
		d.metrics.notification(event.Type, ResultThrottled)
		return apperrors.ErrReminderThrottled
	}
	release := func() {
		if !reserved || !d.throttled() {
			return
		}
		if err := d.throttle.Release(context.WithoutCancel(ctx), key); err != nil {
			log.WithError(err).Warn("failed to release reminder throttle")
		}
	}

	if err := d.publish(ctx, event.Message(Topic(member))); err != nil {
		release()
		d.metrics.notification(event.Type, ResultFailed)
		log.WithError(err).Error("reminder push failed")
		return apperrors.NewDeliveryError(channelPush, member, err)
	}
	d.metrics.notification(event.Type, ResultSent)

	email, err := ReminderEmail(member, sender, group.Name)
	if err != nil {
		release()
		return err
	}
	if err := d.send(ctx, email); err != nil {
		release()
		d.metrics.email(ResultFailed)
		log.WithError(err).Error("reminder email failed")
		return apperrors.NewDeliveryError(channelEmail, member, err)
	}
	d.metrics.email(ResultSent)

	log.Info("payment reminder sent")
	return nil
}

func (d *Dispatcher) throttled() bool {
	return d.throttle != nil && d.opts.ReminderCooldown > 0
}

func (d *Dispatcher) reserve(ctx context.Context, key string) (bool, error) {
	if !d.throttled() {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return d.throttle.Allow(ctx, key, d.opts.ReminderCooldown)
}

func (d *Dispatcher) publish(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return d.publisher.Publish(ctx, msg)
}

func (d *Dispatcher) send(ctx context.Context, email Email) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return d.mailer.Send(ctx, email)
}
