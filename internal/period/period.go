// Package period implements the temporal invariants that a sequence of
// PSURPeriods must satisfy: no overlaps, no gaps, and the jurisdiction-
// specific reporting schedule.
package period

import (
	"fmt"
	"sort"
	"time"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// Overlaps reports whether a and b share at least one day.
func Overlaps(a, b model.PSURPeriod) bool {
	return a.Overlaps(b)
}

// HasGap reports whether current does not begin the day immediately
// after previous ends.
func HasGap(current, previous model.PSURPeriod) bool {
	return current.HasGap(previous)
}

// ValidatePeriodContiguity sorts periods by start date, then reports an
// overlap issue for every pair that overlaps and a gap issue for every
// adjacent pair with a gap. The empty set and singleton sets always pass.
func ValidatePeriodContiguity(periods []model.PSURPeriod) (bool, []string) {
	if len(periods) == 0 {
		return true, nil
	}

	sorted := make([]model.PSURPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	var issues []string
	for i, p := range sorted {
		for _, other := range sorted[i+1:] {
			if p.Overlaps(other) {
				issues = append(issues, fmt.Sprintf("Period %s overlaps with %s", p.PeriodID, other.PeriodID))
			}
		}
	}

	for i := 1; i < len(sorted); i++ {
		current := sorted[i]
		previous := sorted[i-1]
		if current.HasGap(previous) {
			expected := previous.EndDate.AddDate(0, 0, 1)
			issues = append(issues, fmt.Sprintf(
				"Gap between %s (ends %s) and %s (starts %s). Expected start: %s",
				previous.PeriodID, previous.EndDate.Format("2006-01-02"),
				current.PeriodID, current.StartDate.Format("2006-01-02"),
				expected.Format("2006-01-02"),
			))
		}
	}

	return len(issues) == 0, issues
}

// GetScheduleConstraint returns the required PSUR reporting interval for
// a jurisdiction and device class. EU and UK follow the same table:
// class III or IIb → 365 days, IIa → 730 days, otherwise → 5 years.
// Unknown jurisdictions fall back to 365 days.
func GetScheduleConstraint(jurisdiction model.Jurisdiction, deviceClass string) time.Duration {
	switch jurisdiction {
	case model.EU, model.UK:
		switch deviceClass {
		case "III", "IIb":
			return 365 * 24 * time.Hour
		case "IIa":
			return 730 * 24 * time.Hour
		default:
			return 5 * 365 * 24 * time.Hour
		}
	default:
		return 365 * 24 * time.Hour
	}
}
