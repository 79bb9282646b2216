package service

import (
	"context"

	"smartlead_backend/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unscoredClassification = "NONE"

var metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "smartlead",
	Name:      "lead_classification_transitions_total",
	Help:      "Persisted rescores by previous and new classification.",
}, []string{"from", "to"})

// HandleLeadScored records classification movement for a persisted score and
// logs leads that changed bucket. It is subscribed to events.LeadScored.
func (s *Service) HandleLeadScored(_ context.Context, event events.Event) error {
	evt, ok := event.(events.LeadScored)
	if !ok {
		return nil
	}
	from := evt.PreviousClassification
	if from == "" {
		from = unscoredClassification
	}
	metricTransitions.WithLabelValues(from, evt.Classification).Inc()

	if from != evt.Classification {
		s.log.Info("lead classification changed",
			"leadId", evt.LeadID,
			"tenantId", evt.TenantID,
			"eventId", evt.EventID(),
			"from", from,
			"to", evt.Classification,
			"score", evt.Score,
			"previousScore", evt.PreviousScore,
		)
	}
	return nil
}
