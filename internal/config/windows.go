package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DailyWindow is a daily time range during which publish dispatch is
// permitted, expressed as minutes since midnight. A window whose end
// precedes its start wraps past midnight (e.g. 22:00-02:00).
type DailyWindow struct {
	StartMinute int
	EndMinute   int
}

// Contains reports whether the local wall-clock time of t falls inside
// the window. The end minute is exclusive.
func (w DailyWindow) Contains(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if w.StartMinute <= w.EndMinute {
		return minute >= w.StartMinute && minute < w.EndMinute
	}
	return minute >= w.StartMinute || minute < w.EndMinute
}

// ParseDailyWindow parses a window expressed as "HH:MM-HH:MM".
func ParseDailyWindow(value string) (DailyWindow, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return DailyWindow{}, fmt.Errorf("publish window %q must be HH:MM-HH:MM", value)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return DailyWindow{}, fmt.Errorf("publish window %q: %w", value, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return DailyWindow{}, fmt.Errorf("publish window %q: %w", value, err)
	}
	if start == end {
		return DailyWindow{}, fmt.Errorf("publish window %q is empty", value)
	}
	return DailyWindow{StartMinute: start, EndMinute: end}, nil
}

// PublishWindows returns the parsed publish windows. An empty window
// list means dispatch is permitted at any time of day.
func (c *Config) PublishWindows() ([]DailyWindow, error) {
	windows := make([]DailyWindow, 0, len(c.Publisher.Windows))
	for _, raw := range c.Publisher.Windows {
		window, err := ParseDailyWindow(raw)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q must be HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has invalid hour", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has invalid minute", value)
	}
	return hour*60 + minute, nil
}
