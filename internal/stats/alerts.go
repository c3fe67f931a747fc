package stats

import (
	"fmt"
	"sort"

	"github.com/staffmeal/validation-service/internal/catalog"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Alert is a derived, threshold-triggered signal. Alerts are computed
// at query time from Statistics and never stored.
type Alert struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Alert codes. Multiple alerts may fire for the same window; there is
// no precedence or suppression between them.
const (
	AlertErrorRate     = "error_rate"
	AlertCompletion    = "completion_rate"
	AlertForgottenItem = "forgotten_item"
	AlertHourSpike     = "hour_spike"
	AlertCriticalHours = "critical_hours"
)

// AlertConfig holds the alert thresholds.
type AlertConfig struct {
	// CriticalErrorRate fires a CRITICAL alert when exceeded.
	CriticalErrorRate float64 `mapstructure:"critical_error_rate"`
	// WarnCompletionRate fires a WARNING alert when the completion
	// rate drops below it.
	WarnCompletionRate float64 `mapstructure:"warn_completion_rate"`
	// ForgottenItemThreshold is the per-item missing count that fires
	// a WARNING alert.
	ForgottenItemThreshold int `mapstructure:"forgotten_item_threshold"`
	// HourSpikeMultiplier fires a WARNING when an hour bucket's error
	// count exceeds the mean bucket error count times this factor.
	HourSpikeMultiplier float64 `mapstructure:"hour_spike_multiplier"`
	// CriticalHoursMinErrors is the minimum error count for an hour
	// to qualify as a critical hour.
	CriticalHoursMinErrors int `mapstructure:"critical_hours_min_errors"`
	// CriticalHoursTopN caps how many hours the critical-hours INFO
	// alert names.
	CriticalHoursTopN int `mapstructure:"critical_hours_top_n"`
}

// DefaultAlertConfig returns the default thresholds.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		CriticalErrorRate:      0.20,
		WarnCompletionRate:     0.95,
		ForgottenItemThreshold: 5,
		HourSpikeMultiplier:    2.0,
		CriticalHoursMinErrors: 3,
		CriticalHoursTopN:      3,
	}
}

// Validate checks the thresholds for consistency.
func (c AlertConfig) Validate() error {
	if c.CriticalErrorRate <= 0 || c.CriticalErrorRate > 1 {
		return fmt.Errorf("invalid alert config: critical_error_rate must be in (0, 1]")
	}
	if c.WarnCompletionRate <= 0 || c.WarnCompletionRate > 1 {
		return fmt.Errorf("invalid alert config: warn_completion_rate must be in (0, 1]")
	}
	if c.ForgottenItemThreshold < 1 {
		return fmt.Errorf("invalid alert config: forgotten_item_threshold must be at least 1")
	}
	if c.HourSpikeMultiplier <= 1 {
		return fmt.Errorf("invalid alert config: hour_spike_multiplier must be greater than 1")
	}
	if c.CriticalHoursMinErrors < 1 {
		return fmt.Errorf("invalid alert config: critical_hours_min_errors must be at least 1")
	}
	if c.CriticalHoursTopN < 1 {
		return fmt.Errorf("invalid alert config: critical_hours_top_n must be at least 1")
	}
	return nil
}

// DetectAlerts evaluates the thresholds against the given statistics.
// It is a pure function of its inputs; every qualifying alert is
// returned.
func DetectAlerts(s Statistics, cfg AlertConfig) []Alert {
	alerts := make([]Alert, 0)
	if s.Total == 0 {
		return alerts
	}

	if s.ErrorRate > cfg.CriticalErrorRate {
		alerts = append(alerts, Alert{
			Severity: SeverityCritical,
			Code:     AlertErrorRate,
			Message: fmt.Sprintf("error rate %.1f%% exceeds the %.0f%% threshold",
				s.ErrorRate*100, cfg.CriticalErrorRate*100),
		})
	}

	if s.CompletionRate < cfg.WarnCompletionRate {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Code:     AlertCompletion,
			Message: fmt.Sprintf("completion rate %.1f%% is below the %.0f%% target",
				s.CompletionRate*100, cfg.WarnCompletionRate*100),
		})
	}

	alerts = append(alerts, forgottenItemAlerts(s, cfg)...)
	alerts = append(alerts, hourSpikeAlerts(s, cfg)...)

	if hours := criticalHours(s, cfg); len(hours) > 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityInfo,
			Code:     AlertCriticalHours,
			Message:  fmt.Sprintf("peak error hours identified: %s", formatHours(hours)),
		})
	}

	return alerts
}

func forgottenItemAlerts(s Statistics, cfg AlertConfig) []Alert {
	items := make([]catalog.Item, 0, len(s.MissingByItem))
	for item, count := range s.MissingByItem {
		if count >= cfg.ForgottenItemThreshold {
			items = append(items, item)
		}
	}
	// Catalog order keeps the output stable across runs.
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index() < items[j].Index()
	})

	alerts := make([]Alert, 0, len(items))
	for _, item := range items {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Code:     AlertForgottenItem,
			Message: fmt.Sprintf("item %q was missing %d times in the window",
				item, s.MissingByItem[item]),
		})
	}
	return alerts
}

func hourSpikeAlerts(s Statistics, cfg AlertConfig) []Alert {
	totalErrors := 0
	for _, b := range s.ByHour {
		totalErrors += b.Errors()
	}
	if totalErrors == 0 {
		return nil
	}
	mean := float64(totalErrors) / float64(len(s.ByHour))

	var alerts []Alert
	for hour, b := range s.ByHour {
		if float64(b.Errors()) > mean*cfg.HourSpikeMultiplier {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Code:     AlertHourSpike,
				Message: fmt.Sprintf("error spike at %02dh: %d errors vs. a mean of %.1f per hour",
					hour, b.Errors(), mean),
			})
		}
	}
	return alerts
}

// criticalHours returns the top-N hours by error count, ties broken by
// hour, skipping hours below the minimum error count.
func criticalHours(s Statistics, cfg AlertConfig) []int {
	hours := make([]int, 0, len(s.ByHour))
	for hour, b := range s.ByHour {
		if b.Errors() >= cfg.CriticalHoursMinErrors {
			hours = append(hours, hour)
		}
	}
	sort.Slice(hours, func(i, j int) bool {
		ei, ej := s.ByHour[hours[i]].Errors(), s.ByHour[hours[j]].Errors()
		if ei != ej {
			return ei > ej
		}
		return hours[i] < hours[j]
	})
	if len(hours) > cfg.CriticalHoursTopN {
		hours = hours[:cfg.CriticalHoursTopN]
	}
	sort.Ints(hours)
	return hours
}

func formatHours(hours []int) string {
	out := ""
	for i, h := range hours {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%02dh", h)
	}
	return out
}
