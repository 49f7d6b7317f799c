package services

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const defaultBarWidth = 6

// RenderProgressBar draws fraction as a bar of width cells followed by a
// rounded percentage, e.g. "▰▰▱▱▱▱ 33%".
func RenderProgressBar(fraction float64, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(math.Round(fraction * float64(width)))
	percent := int(math.Round(fraction * 100))

	return fmt.Sprintf("%s%s %d%%", strings.Repeat("▰", filled), strings.Repeat("▱", width-filled), percent)
}

// FormatCountdown renders a remaining duration as m:ss, rounding up to the
// next whole second.
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int((remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ResendWait returns how long the user still has to wait before a new code
// may be requested. Zero means a resend is allowed.
func ResendWait(sentAt, now time.Time, after time.Duration) time.Duration {
	wait := sentAt.Add(after).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
