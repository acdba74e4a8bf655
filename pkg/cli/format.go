package cli

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration to a compact human readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs-float64(mins*60))
}
