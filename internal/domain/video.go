package domain

import "time"

// VideoMetadata is a read-only snapshot of a video post fetched from
// the post service. A non-nil ScheduledStartTime in the future marks
// the video as a scheduled live stream.
type VideoMetadata struct {
	Id                 string     `json:"id"`
	Path               string     `json:"videoPath"`
	Title              string     `json:"title"`
	ScheduledStartTime *time.Time `json:"scheduledStartTime,omitempty"`
}

// IsScheduledAfter reports whether the video is scheduled to start
// strictly after now.
func (v VideoMetadata) IsScheduledAfter(now time.Time) bool {
	return v.ScheduledStartTime != nil && v.ScheduledStartTime.After(now)
}
