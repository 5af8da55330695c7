package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/streamnest/watchparty/internal/domain"
)

// State of the locally observed room membership.
type State int

const (
	NoParty State = iota
	Joining
	ActiveCreator
	ActiveMember
	Leaving
)

func (s State) String() string {
	switch s {
	case NoParty:
		return "no_party"
	case Joining:
		return "joining"
	case ActiveCreator:
		return "active_creator"
	case ActiveMember:
		return "active_member"
	case Leaving:
		return "leaving"
	default:
		return "unknown"
	}
}

type iRegistry interface {
	Create(ctx context.Context, isPublic bool) (domain.Room, error)
	Join(ctx context.Context, roomCode string) (domain.Room, error)
	Leave(ctx context.Context, roomCode string) error
	SetCurrentVideo(ctx context.Context, roomCode, videoPath string) (domain.Room, error)
}

type iSyncChannel interface {
	Connect(ctx context.Context, roomCode, credential string) error
	Messages() <-chan domain.SyncMessage
	Send(msg domain.VideoChangeMessage) error
	Close()
}

type iTokenProvider interface {
	GetToken() string
}

// iPlaybackSink receives the video pointer whenever it changes, either
// from a remote sync message or from the local creator's selection.
type iPlaybackSink interface {
	VideoChanged(videoPath string)
}

// Identity is the local user as known to the registry.
type Identity struct {
	UserId   string
	Username string
}

// Controller owns the locally observed room state and mediates between
// the registry and the sync channel. One controller serves at most one
// active room; joining another room tears the first down.
type Controller struct {
	registry iRegistry
	channel  iSyncChannel
	tokens   iTokenProvider
	playback iPlaybackSink
	identity Identity
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	activeRoom *domain.Room
	generation uint64
}

func NewController(registry iRegistry, channel iSyncChannel, tokens iTokenProvider, playback iPlaybackSink, identity Identity, logger *slog.Logger) *Controller {
	return &Controller{
		registry: registry,
		channel:  channel,
		tokens:   tokens,
		playback: playback,
		identity: identity,
		logger:   logger,
		state:    NoParty,
	}
}

// CreateParty registers a new room and activates it locally. The
// caller becomes the creator.
func (c *Controller) CreateParty(ctx context.Context, isPublic bool) (domain.Room, error) {
	c.mu.Lock()
	if c.activeRoom != nil {
		room := c.activeRoom.RoomCode
		c.mu.Unlock()
		return domain.Room{}, fmt.Errorf("already in room %s, leave it first: %w", room, domain.ErrRegistry)
	}
	c.state = Joining
	c.mu.Unlock()

	room, err := c.registry.Create(ctx, isPublic)
	if err != nil {
		c.setState(NoParty)
		return domain.Room{}, err
	}

	c.activate(ctx, room)
	return room, nil
}

// JoinParty joins an existing room by code. The code compares
// case-insensitively; it is normalized before transmission.
func (c *Controller) JoinParty(ctx context.Context, roomCode string) (domain.Room, error) {
	c.mu.Lock()
	if c.activeRoom != nil {
		room := c.activeRoom.RoomCode
		c.mu.Unlock()
		return domain.Room{}, fmt.Errorf("already in room %s, leave it first: %w", room, domain.ErrRegistry)
	}
	c.state = Joining
	c.mu.Unlock()

	room, err := c.registry.Join(ctx, domain.NormalizeRoomCode(roomCode))
	if err != nil {
		c.setState(NoParty)
		return domain.Room{}, err
	}

	c.activate(ctx, room)
	return room, nil
}

// activate stores the room, opens the sync channel and starts the
// message pump for this session.
func (c *Controller) activate(ctx context.Context, room domain.Room) {
	c.mu.Lock()
	snapshot := room
	c.activeRoom = &snapshot
	if room.CreatorId == c.identity.UserId && c.identity.UserId != "" {
		c.state = ActiveCreator
	} else {
		c.state = ActiveMember
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	if err := c.channel.Connect(ctx, room.RoomCode, c.tokens.GetToken()); err != nil {
		// Membership is already registered; a dead socket only costs
		// remote updates. The caller may rejoin for a fresh channel.
		c.logger.WarnContext(ctx, "sync channel connect failed, room joined without live updates",
			"room_code", room.RoomCode, "error", err)
		return
	}

	go c.pump(gen, c.channel.Messages())
}

// pump feeds inbound messages to the state machine one at a time, in
// arrival order. It dies with the connection.
func (c *Controller) pump(gen uint64, messages <-chan domain.SyncMessage) {
	for msg := range messages {
		if msg.VideoChange == nil {
			continue
		}
		c.onInboundMessage(gen, *msg.VideoChange)
	}
}

func (c *Controller) onInboundMessage(gen uint64, msg domain.VideoChangeMessage) {
	c.mu.Lock()

	// The session that opened this pump may have been torn down while
	// the message was in flight.
	if gen != c.generation || c.activeRoom == nil {
		c.mu.Unlock()
		return
	}

	if domain.NormalizeRoomCode(msg.RoomCode) != c.activeRoom.RoomCode {
		c.logger.Warn("discarding sync message for stale room",
			"message_room", msg.RoomCode, "active_room", c.activeRoom.RoomCode)
		c.mu.Unlock()
		return
	}

	videoPath := msg.VideoPath
	c.activeRoom.CurrentVideoPath = &videoPath
	playback := c.playback
	c.mu.Unlock()

	c.logger.Info("video change received", "video_path", videoPath, "from", msg.Username)
	if playback != nil {
		playback.VideoChanged(videoPath)
	}
}

// LeaveParty leaves the active room. The channel is closed and local
// state cleared even when the registry call fails; local consistency
// wins over remote confirmation.
func (c *Controller) LeaveParty(ctx context.Context) error {
	c.mu.Lock()
	if c.activeRoom == nil {
		c.mu.Unlock()
		return nil
	}
	c.state = Leaving
	roomCode := c.activeRoom.RoomCode
	c.mu.Unlock()

	leaveErr := c.registry.Leave(ctx, roomCode)
	if leaveErr != nil {
		c.logger.WarnContext(ctx, "registry leave failed, clearing local state anyway",
			"room_code", roomCode, "error", leaveErr)
	}

	c.mu.Lock()
	c.generation++
	c.activeRoom = nil
	c.state = NoParty
	c.mu.Unlock()

	c.channel.Close()
	return nil
}

// IsCreator reports whether the local user created the active room.
// Never errors; absent room or identity means false.
func (c *Controller) IsCreator() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom == nil || c.identity.UserId == "" {
		return false
	}

	return c.activeRoom.CreatorId == c.identity.UserId
}

// RequestVideoChange is the creator-only broadcast of a new current
// video. Order matters: persist first so late joiners see the right
// pointer, then broadcast, then apply locally. A failed broadcast is
// non-fatal; the creator's own view must still reflect the selection.
func (c *Controller) RequestVideoChange(ctx context.Context, videoPath string) error {
	c.mu.Lock()
	room := c.activeRoom
	isCreator := room != nil && c.identity.UserId != "" && room.CreatorId == c.identity.UserId
	var roomCode string
	if room != nil {
		roomCode = room.RoomCode
	}
	c.mu.Unlock()

	if !isCreator {
		return fmt.Errorf("only the party creator can change the video: %w", domain.ErrAuthorization)
	}

	cleanPath := cleanVideoPath(videoPath)

	updated, err := c.registry.SetCurrentVideo(ctx, roomCode, cleanPath)
	if err != nil {
		return err
	}

	if err := c.channel.Send(domain.VideoChangeMessage{
		RoomCode:  roomCode,
		VideoPath: cleanPath,
		UserId:    c.identity.UserId,
		Username:  c.identity.Username,
	}); err != nil {
		c.logger.WarnContext(ctx, "video change not broadcast, applying locally only", "error", err)
	}

	c.mu.Lock()
	if c.activeRoom != nil && c.activeRoom.RoomCode == roomCode {
		snapshot := updated
		c.activeRoom = &snapshot
	}
	playback := c.playback
	c.mu.Unlock()

	if playback != nil {
		playback.VideoChanged(cleanPath)
	}

	return nil
}

// ActiveRoom returns a copy of the active room, or nil.
func (c *Controller) ActiveRoom() *domain.Room {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRoom == nil {
		return nil
	}

	snapshot := *c.activeRoom
	return &snapshot
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// cleanVideoPath strips a file extension from a selected video path,
// matching how the media store names manifests.
func cleanVideoPath(videoPath string) string {
	if i := strings.IndexByte(videoPath, '.'); i >= 0 {
		return videoPath[:i]
	}

	return videoPath
}
