package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// IsEnabled reports whether the agent is active
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled && nr.Application != nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordRankingLatency records candidate ranking latency
func (nr *NewRelicApp) RecordRankingLatency(latencyMs float64, strategy string) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/ranking/latency_ms/%s", strategy), latencyMs)
}

// RecordRankingRequest records a ranking request with its outcome
func (nr *NewRelicApp) RecordRankingRequest(strategy string, candidates, returned int) {
	nr.RecordCustomEvent("CandidatesRanked", map[string]interface{}{
		"strategy":   strategy,
		"candidates": candidates,
		"returned":   returned,
	})
}

// RecordQuoteCreated records quote creation
func (nr *NewRelicApp) RecordQuoteCreated(vendorID string, price float64, currency string) {
	nr.RecordCustomEvent("QuoteCreated", map[string]interface{}{
		"vendor_id": vendorID,
		"price":     price,
		"currency":  currency,
	})
}

// RecordEntitlementDenied records a subscription_required denial
func (nr *NewRelicApp) RecordEntitlementDenied(vendorID string) {
	nr.RecordCustomEvent("EntitlementDenied", map[string]interface{}{
		"vendor_id": vendorID,
		"timestamp": time.Now().Unix(),
	})
}

// RecordFreeQuotaRemaining records the remaining free contacts observed
// on an entitlement check
func (nr *NewRelicApp) RecordFreeQuotaRemaining(remaining float64) {
	nr.RecordCustomMetric("custom/entitlement/free_remaining", remaining)
}
