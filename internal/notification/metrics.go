package notification

import "github.com/prometheus/client_golang/prometheus"

// Metric names.
const (
	MetricNotificationsTotal = "expensely_notifications_total"
	MetricEmailsTotal        = "expensely_emails_total"
)

// Delivery results used as label values.
const (
	ResultSent      = "sent"
	ResultFailed    = "failed"
	ResultThrottled = "throttled"
)

// Metrics counts push and email deliveries. A nil *Metrics records nothing.
type Metrics struct {
	notifications *prometheus.CounterVec
	emails        *prometheus.CounterVec
}

// NewMetrics creates the delivery counters and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricNotificationsTotal,
			Help: "Push notification attempts by event type and result.",
		}, []string{"event", "result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEmailsTotal,
			Help: "Transactional email attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.notifications, m.emails)
	}
	return m
}

func (m *Metrics) notification(event EventType, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(event), result).Inc()
}

func (m *Metrics) email(result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(result).Inc()
}
