package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	expensesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reimbly_expenses_created_total",
		Help: "Total number of expense claims created",
	})
	statusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reimbly_expense_status_changes_total",
		Help: "Total number of expense status transitions, by resulting status",
	}, []string{"status"})
	auditEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reimbly_audit_entries_total",
		Help: "Total number of audit log entries recorded",
	})
	loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reimbly_logins_total",
		Help: "Total number of login attempts, by outcome",
	}, []string{"outcome"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(expensesCreatedTotal, statusChangesTotal, auditEntriesTotal, loginsTotal)
}

// IncExpenseCreated increments the created expenses counter.
func IncExpenseCreated() { expensesCreatedTotal.Inc() }

// IncStatusChange increments the status transition counter for a status.
func IncStatusChange(status string) { statusChangesTotal.WithLabelValues(status).Inc() }

// IncAuditEntry increments the recorded audit entries counter.
func IncAuditEntry() { auditEntriesTotal.Inc() }

// IncLogin increments the login counter with outcome "ok" or "failed".
func IncLogin(outcome string) { loginsTotal.WithLabelValues(outcome).Inc() }
