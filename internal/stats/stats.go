// Package stats aggregates completed sleep sessions for the dashboard and
// the CLI. Open sessions are excluded from every computation.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sneuz/internal/model"
)

const minutesPerDay = 24 * 60

type Summary struct {
	Count      int     `json:"count"`
	TotalHours int     `json:"total_hours"`
	AvgHours   float64 `json:"avg_hours"`
}

// Summarize computes total hours (rounded) and average hours (one decimal)
// across completed sessions.
func Summarize(sessions []model.SleepSession) Summary {
	var totalMinutes float64
	count := 0
	for i := range sessions {
		if sessions[i].Open() {
			continue
		}
		totalMinutes += sessions[i].Duration().Minutes()
		count++
	}

	summary := Summary{Count: count}
	summary.TotalHours = int(math.Round(totalMinutes / 60))
	if count > 0 {
		avg := totalMinutes / float64(count) / 60
		summary.AvgHours = math.Round(avg*10) / 10
	}
	return summary
}

// MinutesFromMidnight converts a wall-clock time to minutes from the start
// of its day.
func MinutesFromMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes from midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock %q: want HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("parse clock %q: bad hour", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("parse clock %q: bad minute", value)
	}
	if len(parts) == 3 {
		seconds, err := strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("parse clock %q: bad second", value)
		}
	}
	return hours*60 + minutes, nil
}

func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsLateBedtime reports whether the actual bedtime falls more than the grace
// period after the target. Targets near midnight wrap: a 22:00 target with a
// 01:00 bedtime counts as three hours late, not 21 hours early.
func IsLateBedtime(actual time.Time, target string, graceMinutes int) (bool, error) {
	targetMinutes, err := ParseClock(target)
	if err != nil {
		return false, err
	}

	diff := MinutesFromMidnight(actual) - targetMinutes
	if diff < -minutesPerDay/2 {
		diff += minutesPerDay
	}
	if diff > minutesPerDay/2 {
		diff -= minutesPerDay
	}
	return diff > graceMinutes, nil
}
