package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Submissions by path: documents or alternate
	Submissions *prometheus.CounterVec

	// Admin decisions by action
	Decisions *prometheus.CounterVec

	// Provisional memberships granted
	ProvisionalGrants prometheus.Counter

	// Dual writes that failed after the first record was persisted
	PartialWrites prometheus.Counter
}

// New creates a Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_verification_submissions_total",
			Help: "Total document submissions by path",
		}, []string{"path"}), // path: "documents", "alternate", "registration"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_verification_decisions_total",
			Help: "Total admin decisions by action",
		}, []string{"action"}),

		ProvisionalGrants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "udyam_verification_provisional_grants_total",
			Help: "Total provisional membership grants across all paths",
		}),

		PartialWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "udyam_verification_partial_writes_total",
			Help: "Dual writes where the second record failed to persist",
		}),
	}
}

// IncrementSubmission records one seller-initiated submission.
func (m *Metrics) IncrementSubmission(path string) {
	if m != nil {
		m.Submissions.WithLabelValues(path).Inc()
	}
}

// IncrementDecision records one admin verdict.
func (m *Metrics) IncrementDecision(action string) {
	if m != nil {
		m.Decisions.WithLabelValues(action).Inc()
	}
}

// IncrementProvisionalGrant records a provisional membership grant.
func (m *Metrics) IncrementProvisionalGrant() {
	if m != nil {
		m.ProvisionalGrants.Inc()
	}
}

// IncrementPartialWrite records an inconsistent dual write.
func (m *Metrics) IncrementPartialWrite() {
	if m != nil {
		m.PartialWrites.Inc()
	}
}
