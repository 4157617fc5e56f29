package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the checks module. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ChecksCreated       *prometheus.CounterVec
	Submissions         *prometheus.CounterVec
	ValidationVerdicts  *prometheus.CounterVec
	OutcomesRecorded    *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	DuplicateDeliveries prometheus.Counter
	WarningsRaised      *prometheus.CounterVec
	OperationLatency    *prometheus.HistogramVec
}

// New registers the checks metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the checks metrics with reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_checks_created_total",
			Help: "Checks created by check type",
		}, []string{"check_type"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_check_submissions_total",
			Help: "Submission attempts by result",
		}, []string{"result"}), // result: "submitted", "missing_required_tasks", "confirmation_required"

		ValidationVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_selection_verdicts_total",
			Help: "Task selection validation verdicts by kind",
		}, []string{"kind"}),

		OutcomesRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_outcomes_recorded_total",
			Help: "Provider task outcomes recorded by task type and result",
		}, []string{"task_type", "result"}),

		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_status_transitions_total",
			Help: "Check status transitions by target status",
		}, []string{"status"}),

		DuplicateDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "casecheck_duplicate_deliveries_total",
			Help: "Provider webhook deliveries ignored as duplicates",
		}),

		WarningsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casecheck_summary_warnings_total",
			Help: "Warnings produced by summaries by severity",
		}, []string{"severity"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casecheck_operation_duration_seconds",
			Help:    "Duration of check service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncChecksCreated(checkType string) {
	if m != nil {
		m.ChecksCreated.WithLabelValues(checkType).Inc()
	}
}

func (m *Metrics) IncSubmission(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncVerdict(kind string) {
	if m != nil {
		m.ValidationVerdicts.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncOutcome(taskType, result string) {
	if m != nil {
		m.OutcomesRecorded.WithLabelValues(taskType, result).Inc()
	}
}

func (m *Metrics) IncTransition(status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncDuplicateDelivery() {
	if m != nil {
		m.DuplicateDeliveries.Inc()
	}
}

func (m *Metrics) AddWarnings(severity string, n int) {
	if m != nil && n > 0 {
		m.WarningsRaised.WithLabelValues(severity).Add(float64(n))
	}
}

// ObserveOperation records how long a service operation took.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
