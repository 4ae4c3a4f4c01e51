package server

import "time"

// ParseDurationOr parses value and falls back to def when it is empty or invalid.
func ParseDurationOr(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
