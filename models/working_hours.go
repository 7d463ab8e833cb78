package models

import (
	"fmt"
	"strings"
	"time"
)

// DayHours is the opening window of a single weekday.
type DayHours struct {
	Enabled bool      `bson:"enabled" json:"enabled"`
	Start   TimeOfDay `bson:"start" json:"start"`
	End     TimeOfDay `bson:"end" json:"end"`
}

// BreakWindow is a daily recurring range during which no slots are offered.
type BreakWindow struct {
	Start TimeOfDay `bson:"start" json:"start"`
	End   TimeOfDay `bson:"end" json:"end"`
}

// Overlaps reports whether [start, end) intersects the break.
func (b BreakWindow) Overlaps(start, end TimeOfDay) bool {
	return start < b.End && end > b.Start
}

// WorkingHours is a company's weekly schedule. Days are keyed by lower-case
// weekday name ("monday" .. "sunday"); a missing day is closed.
type WorkingHours struct {
	Days  map[string]DayHours `bson:"days" json:"days"`
	Break *BreakWindow        `bson:"break,omitempty" json:"break,omitempty"`
}

// WeekdayKey returns the WorkingHours.Days key for a weekday.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// For returns the hours configured for the weekday of day.
func (w WorkingHours) For(day time.Time) DayHours {
	return w.Days[WeekdayKey(day.Weekday())]
}

// ConfigError describes an inconsistent schedule configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the window invariants: start < end for every enabled day
// and for the break, and the break inside every enabled day.
func (w WorkingHours) Validate() error {
	if len(w.Days) == 0 {
		return &ConfigError{Field: "workingHours", Message: "no weekdays configured"}
	}
	if w.Break != nil {
		if !w.Break.Start.Valid() || !w.Break.End.Valid() || w.Break.Start >= w.Break.End {
			return &ConfigError{Field: "break", Message: fmt.Sprintf("start %s must be before end %s", w.Break.Start, w.Break.End)}
		}
	}
	for key, day := range w.Days {
		if !isWeekdayKey(key) {
			return &ConfigError{Field: key, Message: "unknown weekday"}
		}
		if !day.Enabled {
			continue
		}
		if !day.Start.Valid() || !day.End.Valid() || day.Start >= day.End {
			return &ConfigError{Field: key, Message: fmt.Sprintf("start %s must be before end %s", day.Start, day.End)}
		}
		if w.Break != nil && (w.Break.Start < day.Start || w.Break.End > day.End) {
			return &ConfigError{Field: key, Message: fmt.Sprintf("break %s-%s falls outside %s-%s", w.Break.Start, w.Break.End, day.Start, day.End)}
		}
	}
	return nil
}

func isWeekdayKey(key string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if WeekdayKey(d) == key {
			return true
		}
	}
	return false
}

// DefaultWorkingHours mirrors the settings form defaults: every day
// 09:00-18:00 with a 13:00-14:00 break.
func DefaultWorkingHours() WorkingHours {
	days := make(map[string]DayHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		days[WeekdayKey(d)] = DayHours{Enabled: true, Start: 9 * 60, End: 18 * 60}
	}
	return WorkingHours{
		Days:  days,
		Break: &BreakWindow{Start: 13 * 60, End: 14 * 60},
	}
}
