package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared by the billing collectors.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheInvalidate = "invalidate"

	MirrorOK       = "ok"
	MirrorDegraded = "degraded"

	ReorderOK           = "ok"
	ReorderPhase1Failed = "phase1_failed"
	ReorderPhase2Failed = "phase2_failed"
)

// BillingMetrics records the subscription core's health signals.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	pricingCache  *prometheus.CounterVec
	mirror        *prometheus.CounterVec
	reorder       *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
	upstream      *prometheus.HistogramVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	pricingCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_events_total",
		Help: "Pricing cache lookups and invalidations.",
	}, []string{"event"})
	mirror := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_mirror_total",
		Help: "Local subscription mirror writes after billing API changes.",
	}, []string{"operation", "outcome"})
	reorder := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_slide_reorder_total",
		Help: "Kiosk slide reorder batches by outcome.",
	}, []string{"outcome"})
	auditFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_audit_write_failures_total",
		Help: "Admin audit entries that could not be persisted.",
	}, []string{"action"})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_api_request_duration_seconds",
		Help:    "Duration of billing API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(pricingCache, mirror, reorder, auditFailures, upstream)
	return &BillingMetrics{
		pricingCache:  pricingCache,
		mirror:        mirror,
		reorder:       reorder,
		auditFailures: auditFailures,
		upstream:      upstream,
	}
}

// PricingCache counts a cache hit, miss or invalidation.
func (m *BillingMetrics) PricingCache(event string) {
	if m == nil || m.pricingCache == nil {
		return
	}
	m.pricingCache.WithLabelValues(normalizeLabel(event)).Inc()
}

// Mirror counts a local mirror write outcome for the named operation.
func (m *BillingMetrics) Mirror(operation, outcome string) {
	if m == nil || m.mirror == nil {
		return
	}
	m.mirror.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// Reorder counts a slide reorder batch outcome.
func (m *BillingMetrics) Reorder(outcome string) {
	if m == nil || m.reorder == nil {
		return
	}
	m.reorder.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AuditFailure counts an audit entry that failed to persist.
func (m *BillingMetrics) AuditFailure(action string) {
	if m == nil || m.auditFailures == nil {
		return
	}
	m.auditFailures.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveUpstream records the duration of a billing API call.
func (m *BillingMetrics) ObserveUpstream(operation string, duration time.Duration, err error) {
	if m == nil || m.upstream == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstream.WithLabelValues(normalizeLabel(operation), outcome).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
