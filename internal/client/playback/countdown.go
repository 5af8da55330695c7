package playback

import (
	"fmt"
	"time"
)

// Countdown is the remaining-time breakdown shown while waiting for a
// scheduled stream.
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int

	due bool
}

func countdownUntil(start, now time.Time) Countdown {
	distance := start.Sub(now)
	if distance < 0 {
		return Countdown{due: true}
	}

	return Countdown{
		Days:    int(distance / (24 * time.Hour)),
		Hours:   int(distance % (24 * time.Hour) / time.Hour),
		Minutes: int(distance % time.Hour / time.Minute),
		Seconds: int(distance % time.Minute / time.Second),
	}
}

func (c Countdown) String() string {
	if c.due {
		return "Starting soon..."
	}

	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
