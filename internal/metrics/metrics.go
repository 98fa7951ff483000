// Package metrics exposes Prometheus counters for priority scoring activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// Scoring triggers.
const (
	TriggerCreate      = "create"
	TriggerUpvote      = "upvote"
	TriggerRecalculate = "recalculate"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	scored        *prometheus.CounterVec
	recalcRuns    *prometheus.CounterVec
	recalcUpdated prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_priority_scored_total",
			Help: "Issues scored by the priority engine, by trigger and resulting level.",
		}, []string{"trigger", "level"}),
		recalcRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issue_priority_recalculations_total",
			Help: "Bulk priority recalculation runs by outcome.",
		}, []string{"outcome"}),
		recalcUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "issue_priority_recalculated_issues_total",
			Help: "Issues whose stored priority was overwritten by bulk recalculation.",
		}),
	}
	m.registry.MustRegister(m.scored, m.recalcRuns, m.recalcUpdated)
	return m
}

// ObserveScore counts one engine invocation.
func (m *Metrics) ObserveScore(trigger string, level priority.Level) {
	m.scored.WithLabelValues(trigger, string(level)).Inc()
}

// ObserveRecalculation counts one bulk run that updated n issues.
func (m *Metrics) ObserveRecalculation(updated int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "partial"
	}
	m.recalcRuns.WithLabelValues(outcome).Inc()
	m.recalcUpdated.Add(float64(updated))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
