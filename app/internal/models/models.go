package models

import "time"

// Metric names, in the fixed order verdicts are produced.
const (
	MetricAvailability6h  = "availability_6h"
	MetricAvailability24h = "availability_24h"
	MetricSuccess6hPri    = "success_rate_6h_primary"
	MetricSuccess6hSec    = "success_rate_6h_secondary"
	MetricSuccess24hPri   = "success_rate_24h_primary"
	MetricSuccess24hSec   = "success_rate_24h_secondary"
)

// MetricNames lists the six monitored metrics in evaluation order.
var MetricNames = []string{
	MetricAvailability6h,
	MetricAvailability24h,
	MetricSuccess6hPri,
	MetricSuccess6hSec,
	MetricSuccess24hPri,
	MetricSuccess24hSec,
}

// ExtractionMethod records which parsing path produced a snapshot.
type ExtractionMethod string

const (
	MethodStructural ExtractionMethod = "structural"
	MethodSemantic   ExtractionMethod = "semantic_fallback"
)

// MetricSnapshot is one fully-parsed set of dashboard metrics.
// A snapshot is only ever created with all six values present.
type MetricSnapshot struct {
	Timestamp       time.Time        `json:"timestamp"`
	Availability6h  float64          `json:"availability_6h"`
	Availability24h float64          `json:"availability_24h"`
	Success6hPri    float64          `json:"success_rate_6h_primary"`
	Success6hSec    float64          `json:"success_rate_6h_secondary"`
	Success24hPri   float64          `json:"success_rate_24h_primary"`
	Success24hSec   float64          `json:"success_rate_24h_secondary"`
	Method          ExtractionMethod `json:"extraction_method"`
}

// Value returns the named metric's value. Unknown names return 0.
func (s *MetricSnapshot) Value(metric string) float64 {
	switch metric {
	case MetricAvailability6h:
		return s.Availability6h
	case MetricAvailability24h:
		return s.Availability24h
	case MetricSuccess6hPri:
		return s.Success6hPri
	case MetricSuccess6hSec:
		return s.Success6hSec
	case MetricSuccess24hPri:
		return s.Success24hPri
	case MetricSuccess24hSec:
		return s.Success24hSec
	}
	return 0
}

// ThresholdConfig holds the minimum acceptable value per metric, in percent.
// Loaded once at startup and never mutated.
type ThresholdConfig struct {
	MinAvailability6h  float64
	MinAvailability24h float64
	MinSuccess6hPri    float64
	MinSuccess6hSec    float64
	MinSuccess24hPri   float64
	MinSuccess24hSec   float64
}

// Min returns the threshold for the named metric. Unknown names return 0.
func (c ThresholdConfig) Min(metric string) float64 {
	switch metric {
	case MetricAvailability6h:
		return c.MinAvailability6h
	case MetricAvailability24h:
		return c.MinAvailability24h
	case MetricSuccess6hPri:
		return c.MinSuccess6hPri
	case MetricSuccess6hSec:
		return c.MinSuccess6hSec
	case MetricSuccess24hPri:
		return c.MinSuccess24hPri
	case MetricSuccess24hSec:
		return c.MinSuccess24hSec
	}
	return 0
}

// VerdictStatus is the outcome of comparing one metric to its threshold.
type VerdictStatus string

const (
	VerdictOK     VerdictStatus = "ok"
	VerdictBreach VerdictStatus = "breach"
)

// Verdict is the per-metric, per-cycle evaluation result.
type Verdict struct {
	Metric    string        `json:"metric"`
	Observed  float64       `json:"observed"`
	Threshold float64       `json:"threshold"`
	Status    VerdictStatus `json:"status"`
}

// AlertState is the per-metric alerting state.
type AlertState string

const (
	StateNormal   AlertState = "normal"
	StateAlerting AlertState = "alerting"
)

// MetricStatus is the externally visible view of one metric's alert record,
// served by the status API.
type MetricStatus struct {
	Metric       string     `json:"metric"`
	State        AlertState `json:"state"`
	LastNotified AlertState `json:"last_notified"`
	BreachSince  *time.Time `json:"breach_since,omitempty"`
	OwedMessage  bool       `json:"owed_message"`
}

// StatusPayload is the /api/status response body.
type StatusPayload struct {
	T        time.Time               `json:"t"`
	Provider string                  `json:"provider"`
	Network  string                  `json:"network"`
	Snapshot *MetricSnapshot         `json:"snapshot,omitempty"`
	Metrics  map[string]MetricStatus `json:"metrics"`
	Alerts   []AlertEvent            `json:"recent_alerts"`
}

// AlertEvent is one row of the persisted alert history.
type AlertEvent struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Metric    string `json:"metric"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
}

// LogEntry is one row of the persisted monitor log.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Metric    string `json:"metric"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}

// LogStats summarizes the persisted log trail.
type LogStats struct {
	TotalLogs  int `json:"total_logs"`
	ErrorCount int `json:"error_count"`
	WarnCount  int `json:"warn_count"`
	InfoCount  int `json:"info_count"`
	DebugCount int `json:"debug_count"`
}
