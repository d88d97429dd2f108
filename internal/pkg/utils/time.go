package utils

import "fmt"

// FormatTime converts a millisecond offset from the recording start
// into a human readable elapsed time, e.g. 754003 -> "12:34.003"
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	rem := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, rem)
	}
	return fmt.Sprintf("%d:%02d.%03d", m, s, rem)
}
