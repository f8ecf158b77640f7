package model

// Alert severities and run statuses for the drift monitor.
const (
	SeverityWarn     = "WARN"
	SeverityCritical = "CRITICAL"

	MonitorStatusPass = "PASS"
	MonitorStatusWarn = "WARN"
	MonitorStatusFail = "FAIL"
)

// Per-check result states. Skipped is distinct from pass: a check that could
// not run for lack of baseline is reported as skipped, never as healthy.
const (
	CheckResultPass     = "pass"
	CheckResultWarn     = "warn"
	CheckResultCritical = "critical"
	CheckResultSkipped  = "skipped"
)

type Alert struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type CheckResult struct {
	Check  string `json:"check"`
	Result string `json:"result"`
	Detail string `json:"detail,omitempty"`
}

// MonitorReport is the single source of truth for whether downstream
// consumers should trust the run's attribution numbers. Status is FAIL iff
// any alert is CRITICAL, PASS iff there are no alerts, WARN otherwise.
type MonitorReport struct {
	Date   string        `json:"date"`
	Alerts []Alert       `json:"alerts"`
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// StatusFromAlerts derives the overall run status.
func StatusFromAlerts(alerts []Alert) string {
	if len(alerts) == 0 {
		return MonitorStatusPass
	}
	for _, a := range alerts {
		if a.Severity == SeverityCritical {
			return MonitorStatusFail
		}
	}
	return MonitorStatusWarn
}
