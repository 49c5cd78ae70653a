package notification

import "time"

// LogTimestamp renders t as "[YYYY-MM-DD HH:MM:SS]", the prefix of every
// notification message.
func LogTimestamp(t time.Time) string {
	return t.Format("[2006-01-02 15:04:05]")
}
