package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/localrivet/ankimcp/internal/ankiconnect"
	"github.com/localrivet/ankimcp/internal/errortypes"
	"github.com/localrivet/ankimcp/internal/telemetry"
)

// HealthStatus represents the health status of the bridge
type HealthStatus string

const (
	// StatusHealthy indicates AnkiConnect answered the probe
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded indicates AnkiConnect answered but recent calls failed
	StatusDegraded HealthStatus = "degraded"

	// StatusUnhealthy indicates AnkiConnect could not be reached
	StatusUnhealthy HealthStatus = "unhealthy"
)

// degradedSuccessRate is the success rate, in percent, below which a
// reachable endpoint is reported as degraded.
const degradedSuccessRate = 50.0

// HealthReport contains information about the current health of the bridge
type HealthReport struct {
	Status        HealthStatus       `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	AnkiURL       string             `json:"anki_url,omitempty"`
	AnkiVersion   *int               `json:"anki_version,omitempty"`
	ProbeError    string             `json:"probe_error,omitempty"`
	ProbeTimeMS   float64            `json:"probe_time_ms"`
	SuccessRate   float64            `json:"success_rate"`
	TotalRequests int64              `json:"total_requests"`
	Failures      map[string]int64   `json:"failures"`
	ResponseTimes map[string]float64 `json:"response_times_ms"`
	LastSuccess   *time.Time         `json:"last_success,omitempty"`
}

// CreateHealthReport probes AnkiConnect with the version action and
// combines the outcome with the collected bridge metrics. The probe goes
// through anki, so it is counted in the metrics it reports on.
func CreateHealthReport(ctx context.Context, anki ankiconnect.Invoker, m *telemetry.MetricsCollector) *HealthReport {
	if m == nil {
		m = telemetry.NewMetricsCollector()
	}

	report := &HealthReport{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}
	if c, ok := anki.(interface{ URL() string }); ok {
		report.AnkiURL = c.URL()
	}

	start := time.Now()
	var version int
	err := ankiconnect.Decode(ctx, anki, "version", nil, &version)
	report.ProbeTimeMS = float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		report.ProbeError = err.Error()
		if errortypes.IsTransportError(err) {
			report.Status = StatusUnhealthy
		} else {
			report.Status = StatusDegraded
		}
	} else {
		report.AnkiVersion = &version
	}

	totalSuccess := m.GetCounter(telemetry.MetricCallsSuccess)
	totalFailure := m.GetCounter(telemetry.MetricCallsFailure)
	report.TotalRequests = totalSuccess + totalFailure
	if report.TotalRequests > 0 {
		report.SuccessRate = float64(totalSuccess) / float64(report.TotalRequests) * 100.0
	}
	if report.Status == StatusHealthy && report.TotalRequests > 0 && report.SuccessRate < degradedSuccessRate {
		report.Status = StatusDegraded
	}

	report.Failures = map[string]int64{
		"transport": m.GetCounter(telemetry.MetricFailureTransport),
		"protocol":  m.GetCounter(telemetry.MetricFailureProtocol),
		"remote":    m.GetCounter(telemetry.MetricFailureRemote),
	}
	report.ResponseTimes = map[string]float64{
		"average": float64(m.GetTimerAverage(telemetry.MetricResponseTime)) / float64(time.Millisecond),
		"p95":     float64(m.GetTimerP95(telemetry.MetricResponseTime)) / float64(time.Millisecond),
	}
	if ts, ok := m.GetLastTime(telemetry.MetricLastSuccess); ok {
		report.LastSuccess = &ts
	}

	return report
}

// CreateHealthReportJSON generates an indented JSON health report
func CreateHealthReportJSON(ctx context.Context, anki ankiconnect.Invoker, m *telemetry.MetricsCollector) (string, error) {
	report := CreateHealthReport(ctx, anki, m)

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errortypes.InternalError(err, "failed to marshal health report")
	}
	return string(reportJSON), nil
}
