// Package metrics exposes the operator signals of the indexer: degraded
// contract reads, swallowed missing-listing events and ledger drift.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics struct {
	eventsProcessed     *prometheus.CounterVec
	duplicateEvents     prometheus.Counter
	degradedReads       *prometheus.CounterVec
	missingListing      *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
	historyDedupRemoved prometheus.Counter
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketview_events_processed_total",
				Help: "Count of events applied to the materialized view by event name.",
			}, []string{"event"}),
			duplicateEvents: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "marketview_duplicate_events_total",
				Help: "Count of redelivered events skipped because they were already applied.",
			}),
			degradedReads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketview_degraded_reads_total",
				Help: "Count of contract reads that reverted and fell back to a default value.",
			}, []string{"call"}),
			missingListing: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketview_missing_listing_total",
				Help: "Count of closing events that found no matching open listing.",
			}, []string{"event"}),
			invariantViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketview_invariant_violations_total",
				Help: "Count of inconsistencies between on-chain amounts and the derived view.",
			}, []string{"kind"}),
			historyDedupRemoved: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "marketview_history_dedup_removed_total",
				Help: "Count of speculative transfer history records retracted by a sale event.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.eventsProcessed,
			engineRegistry.duplicateEvents,
			engineRegistry.degradedReads,
			engineRegistry.missingListing,
			engineRegistry.invariantViolations,
			engineRegistry.historyDedupRemoved,
		)
	})
	return engineRegistry
}

func orUnknown(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}

func (m *EngineMetrics) ObserveEventProcessed(event string) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(orUnknown(event)).Inc()
}

func (m *EngineMetrics) ObserveDuplicateEvent() {
	if m == nil {
		return
	}
	m.duplicateEvents.Inc()
}

func (m *EngineMetrics) ObserveDegradedRead(call string) {
	if m == nil {
		return
	}
	m.degradedReads.WithLabelValues(orUnknown(call)).Inc()
}

func (m *EngineMetrics) ObserveMissingListing(event string) {
	if m == nil {
		return
	}
	m.missingListing.WithLabelValues(orUnknown(event)).Inc()
}

func (m *EngineMetrics) ObserveInvariantViolation(kind string) {
	if m == nil {
		return
	}
	m.invariantViolations.WithLabelValues(orUnknown(kind)).Inc()
}

func (m *EngineMetrics) ObserveHistoryDedupRemoved() {
	if m == nil {
		return
	}
	m.historyDedupRemoved.Inc()
}

// DegradedReads returns the collector for tests and dashboards that need a
// single series.
func (m *EngineMetrics) DegradedReads(call string) prometheus.Counter {
	return m.degradedReads.WithLabelValues(orUnknown(call))
}

func (m *EngineMetrics) MissingListing(event string) prometheus.Counter {
	return m.missingListing.WithLabelValues(orUnknown(event))
}

func (m *EngineMetrics) InvariantViolations(kind string) prometheus.Counter {
	return m.invariantViolations.WithLabelValues(orUnknown(kind))
}

func (m *EngineMetrics) EventsProcessed(event string) prometheus.Counter {
	return m.eventsProcessed.WithLabelValues(orUnknown(event))
}

func (m *EngineMetrics) DuplicateEvents() prometheus.Counter {
	return m.duplicateEvents
}

func (m *EngineMetrics) HistoryDedupRemoved() prometheus.Counter {
	return m.historyDedupRemoved
}
