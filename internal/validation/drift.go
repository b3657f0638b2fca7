package validation

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one drift finding.
type Alert struct {
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	ObservedAt time.Time `json:"observed_at"`
}

// Drift thresholds: accuracy drops beyond these percentages escalate.
const (
	driftWarnDrop     = 5.0
	driftCriticalDrop = 10.0

	// tierFloor is the minimum share of sites that must reach the 70%
	// accuracy tier before the monitor escalates.
	tierFloor = 70.0

	// historyCap bounds retained summaries.
	historyCap = 20
)

// Monitor tracks validation summaries over time and raises alerts when
// accuracy drifts. Safe for concurrent use.
type Monitor struct {
	mu      sync.Mutex
	history []Summary
}

// NewMonitor returns an empty drift monitor.
func NewMonitor() *Monitor { return &Monitor{} }

// Record appends a summary, evicting the oldest beyond the history cap.
func (m *Monitor) Record(s Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, s)
	if len(m.history) > historyCap {
		m.history = m.history[len(m.history)-historyCap:]
	}
}

// History returns a copy of the retained summaries, oldest first.
func (m *Monitor) History() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, len(m.history))
	copy(out, m.history)
	return out
}

// Alerts compares the newest summary against the previous one and returns
// drift findings. Fewer than two summaries can still alert on the tier
// floor; no history returns nothing.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var alerts []Alert
	latest := m.history[len(m.history)-1]

	if len(m.history) >= 2 {
		previous := m.history[len(m.history)-2]
		drop := previous.MeanAccuracy - latest.MeanAccuracy
		if drop > driftWarnDrop {
			severity := SeverityWarning
			if drop > driftCriticalDrop {
				severity = SeverityCritical
			}
			alerts = append(alerts, Alert{
				Severity:   severity,
				Message:    fmt.Sprintf("Mean accuracy dropped %.1f points (%.1f%% -> %.1f%%)", drop, previous.MeanAccuracy, latest.MeanAccuracy),
				ObservedAt: now,
			})
		}
	}

	if latest.TierPct70 < tierFloor {
		alerts = append(alerts, Alert{
			Severity:   SeverityCritical,
			Message:    fmt.Sprintf("Only %.1f%% of sites reach the 70%% accuracy tier (floor %.0f%%)", latest.TierPct70, tierFloor),
			ObservedAt: now,
		})
	}

	for _, a := range alerts {
		zap.L().Warn("validation: drift alert",
			zap.String("severity", a.Severity),
			zap.String("message", a.Message),
		)
	}
	return alerts
}
