package playback

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/streamnest/watchparty/internal/domain"
)

// State of the playback machine. Owned exclusively by the Controller
// and reset to Idle whenever the active video changes.
type State int

const (
	Idle State = iota
	Scheduled
	CountingDown
	Attaching
	Live
	Vod
	Recoverable
	Fatal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case CountingDown:
		return "counting_down"
	case Attaching:
		return "attaching"
	case Live:
		return "live"
	case Vod:
		return "vod"
	case Recoverable:
		return "recoverable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type iPostService interface {
	GetVideo(ctx context.Context, path string) (domain.VideoMetadata, error)
	VideoURL(name string) string
}

// iViewRecorder gets the play-begun signal, at most once per engine
// attachment.
type iViewRecorder interface {
	RecordView(videoId string)
}

// Controller decides how a selected video is presented: countdown for
// a future scheduled stream, live-edge attachment once it starts, plain
// VOD otherwise. It consumes local selections, remote video-change
// notifications and engine events, processing them one at a time.
type Controller struct {
	engines EngineFactory
	posts   iPostService
	views   iViewRecorder
	logger  *slog.Logger

	now       func() time.Time
	tickEvery time.Duration

	mu            sync.Mutex
	state         State
	video         domain.VideoMetadata
	scheduledLive bool
	engine        Engine
	destroyed     bool
	playReported  bool
	remaining     Countdown
	generation    uint64
	stopTick      chan struct{}
}

func NewController(engines EngineFactory, posts iPostService, views iViewRecorder, logger *slog.Logger) *Controller {
	if engines == nil {
		engines = func(EngineConfig) Engine { return NopEngine{} }
	}

	return &Controller{
		engines:   engines,
		posts:     posts,
		views:     views,
		logger:    logger,
		now:       time.Now,
		tickEvery: time.Second,
		state:     Idle,
	}
}

// Load makes video the active target. Any previous attachment is torn
// down first.
func (c *Controller) Load(ctx context.Context, video domain.VideoMetadata) {
	c.mu.Lock()
	c.resetLocked()
	c.video = video
	c.scheduledLive = video.ScheduledStartTime != nil

	if video.IsScheduledAfter(c.now()) {
		c.state = Scheduled
		c.remaining = countdownUntil(*video.ScheduledStartTime, c.now())
		c.startTickerLocked()
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "video scheduled, counting down",
			"video_path", video.Path, "starts_at", video.ScheduledStartTime)
		return
	}

	eng, url := c.attachLocked()
	c.mu.Unlock()

	c.startEngine(eng, url)
}

// VideoChanged implements the session's playback sink: tear down the
// current target and restart for the announced path. Metadata comes
// from the post service; a fetch failure leaves the machine Idle.
func (c *Controller) VideoChanged(videoPath string) {
	c.Reset()

	ctx := context.Background()
	meta, err := c.posts.GetVideo(ctx, videoPath)
	if err != nil {
		c.logger.Warn("failed to load metadata for announced video", "video_path", videoPath, "error", err)
		return
	}

	c.Load(ctx, meta)
}

// Reset tears down any attachment and timer and returns to Idle. Safe
// on every exit path.
func (c *Controller) Reset() {
	c.mu.Lock()
	eng := c.resetLocked()
	c.mu.Unlock()

	if eng != nil {
		eng.Destroy()
	}
}

// resetLocked returns the engine to destroy, if any; the caller must
// call Destroy outside the lock.
func (c *Controller) resetLocked() Engine {
	c.stopTickLocked()
	eng := c.takeEngineLocked()
	c.state = Idle
	c.playReported = false
	c.remaining = Countdown{}
	return eng
}

// takeEngineLocked removes the current engine exactly once.
func (c *Controller) takeEngineLocked() Engine {
	if c.engine == nil || c.destroyed {
		c.engine = nil
		return nil
	}

	eng := c.engine
	c.engine = nil
	c.destroyed = true
	return eng
}

func (c *Controller) attachLocked() (Engine, string) {
	cfg := EngineConfig{}
	if c.scheduledLive {
		cfg = liveEdgeConfig()
	}

	c.state = Attaching
	c.engine = c.engines(cfg)
	c.destroyed = false
	c.playReported = false

	return c.engine, c.posts.VideoURL(manifestName(c.video.Path))
}

func (c *Controller) startEngine(eng Engine, url string) {
	if eng == nil {
		return
	}

	eng.LoadSource(url)
	eng.AttachMedia()
}

func (c *Controller) startTickerLocked() {
	c.generation++
	gen := c.generation
	stop := make(chan struct{})
	c.stopTick = stop
	interval := c.tickEvery

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				c.tick(gen)
			}
		}
	}()
}

func (c *Controller) stopTickLocked() {
	c.generation++
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

// tick re-evaluates the schedule once per second. The generation guard
// keeps a late tick from transitioning a machine that already moved on.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || (c.state != Scheduled && c.state != CountingDown) {
		c.mu.Unlock()
		return
	}

	now := c.now()
	start := *c.video.ScheduledStartTime
	if !start.After(now) {
		c.stopTickLocked()
		eng, url := c.attachLocked()
		c.mu.Unlock()
		c.startEngine(eng, url)
		return
	}

	c.state = CountingDown
	c.remaining = countdownUntil(start, now)
	c.mu.Unlock()
}

// attachedLocked reports whether eng is the engine currently attached.
// Engine events outlive their engine; a late callback from a torn-down
// attachment must not drive the machine, the same way a stale tick is
// dropped.
func (c *Controller) attachedLocked(eng Engine) bool {
	return c.engine != nil && eng == c.engine
}

// OnManifestParsed is eng's manifest event. live is false when the
// manifest carries an end marker.
func (c *Controller) OnManifestParsed(eng Engine, live bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attachedLocked(eng) || c.state != Attaching {
		return
	}

	if live && c.scheduledLive {
		c.state = Live
		return
	}

	c.state = Vod
}

// OnLevelLoaded tracks manifest reloads. A live stream whose reload
// reports an end marker has finished broadcasting; switch to VOD
// without re-attaching.
func (c *Controller) OnLevelLoaded(eng Engine, live bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attachedLocked(eng) {
		return
	}

	switch c.state {
	case Live:
		if !live {
			c.state = Vod
		}
	case Recoverable:
		// recovery succeeded, level data is flowing again
		if live && c.scheduledLive {
			c.state = Live
		} else {
			c.state = Vod
		}
	}
}

// OnError reacts to an engine error. Non-fatal network errors resume
// loading, non-fatal media errors attempt decoder recovery; everything
// else is fatal and tears the engine down.
func (c *Controller) OnError(eng Engine, category ErrorCategory, fatal bool) {
	c.mu.Lock()

	if !c.attachedLocked(eng) {
		c.mu.Unlock()
		return
	}

	if fatal {
		c.state = Fatal
		eng := c.takeEngineLocked()
		videoPath := c.video.Path
		c.mu.Unlock()

		c.logger.Error("fatal playback error, tearing engine down",
			"category", category.String(), "video_path", videoPath)
		if eng != nil {
			eng.Destroy()
		}
		return
	}

	switch category {
	case ErrorCategoryNetwork:
		c.state = Recoverable
		eng := c.engine
		c.mu.Unlock()

		c.logger.Warn("recoverable network error, resuming load")
		eng.ResumeLoad()
	case ErrorCategoryMedia:
		c.state = Recoverable
		eng := c.engine
		c.mu.Unlock()

		c.logger.Warn("recoverable media error, attempting decoder recovery")
		eng.RecoverMediaError()
	default:
		// no recovery action for this category
		c.state = Fatal
		eng := c.takeEngineLocked()
		c.mu.Unlock()

		c.logger.Error("unrecoverable playback error, tearing engine down",
			"category", category.String())
		if eng != nil {
			eng.Destroy()
		}
	}
}

// OnPlay is eng's playback-started event. The view signal fires
// exactly once per attachment no matter how many play events arrive.
func (c *Controller) OnPlay(eng Engine) {
	c.mu.Lock()
	if !c.attachedLocked(eng) || c.playReported {
		c.mu.Unlock()
		return
	}

	c.playReported = true
	views := c.views
	videoId := c.video.Id
	c.mu.Unlock()

	if views != nil {
		views.RecordView(videoId)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the current countdown breakdown; meaningful in
// Scheduled and CountingDown.
func (c *Controller) Remaining() Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Controller) Video() domain.VideoMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video
}

// manifestName maps a stored video path to its manifest file name.
func manifestName(videoPath string) string {
	if i := strings.IndexByte(videoPath, '.'); i >= 0 {
		videoPath = videoPath[:i]
	}

	return videoPath + ".m3u8"
}
