package playback

// ErrorCategory classifies engine errors the way HLS engines report
// them: transport failures, decode failures, everything else.
type ErrorCategory int

const (
	ErrorCategoryNetwork ErrorCategory = iota
	ErrorCategoryMedia
	ErrorCategoryOther
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNetwork:
		return "network"
	case ErrorCategoryMedia:
		return "media"
	default:
		return "other"
	}
}

// EngineConfig is handed to the engine factory per attachment. For
// scheduled streams the live-edge fields bias buffering toward one
// segment of latency, tolerating up to three; on-demand videos get the
// zero value and no live-edge bias.
type EngineConfig struct {
	LiveSyncDurationCount       int
	LiveMaxLatencyDurationCount int
}

const (
	liveSyncSegments       = 1
	liveMaxLatencySegments = 3
)

func liveEdgeConfig() EngineConfig {
	return EngineConfig{
		LiveSyncDurationCount:       liveSyncSegments,
		LiveMaxLatencyDurationCount: liveMaxLatencySegments,
	}
}

// Engine is the adaptive-stream engine surface the controller drives.
// Implementations deliver manifest/level/error/play events back through
// the controller's On* methods, passing themselves as the source so
// events from a replaced engine can be told apart from the live one.
type Engine interface {
	LoadSource(url string)
	AttachMedia()
	ResumeLoad()
	RecoverMediaError()
	Destroy()
}

// EngineFactory builds one engine per attachment.
type EngineFactory func(cfg EngineConfig) Engine

// NopEngine is an engine that plays nothing. Useful for headless
// clients that follow a party without rendering media.
type NopEngine struct{}

func (NopEngine) LoadSource(string) {}
func (NopEngine) AttachMedia() {}
func (NopEngine) ResumeLoad() {}
func (NopEngine) RecoverMediaError() {}
func (NopEngine) Destroy() {}
