package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamnest/watchparty/internal/service/room"
	"github.com/streamnest/watchparty/pkg/rest"
)

// writeServiceError maps the room service error taxonomy onto HTTP
// statuses. Unrecognized errors are hidden behind a 500.
func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrMemberNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": err.Error()})
	case errors.Is(err, room.ErrPermissionDenied):
		rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": err.Error()})
	case errors.Is(err, room.ErrInvalidToken):
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": err.Error()})
	default:
		c.logger.ErrorContext(r.Context(), "internal error", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
	}
}

type issueTokenRequest struct {
	Username string `json:"username" validate:"required,max=32"`
}

func (c controller) issueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.roomService.IssueToken(r.Context(), &room.IssueTokenParams{
		Username: req.Username,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, struct {
		Token    string `json:"token"`
		UserId   string `json:"userId"`
		Username string `json:"username"`
	}{
		Token:    resp.Token,
		UserId:   resp.UserId,
		Username: resp.Username,
	})
}

type createRoomRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	createdRoom, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		UserId:   c.getUserIdFromCtx(r.Context()),
		Username: c.getUsernameFromCtx(r.Context()),
		IsPublic: req.IsPublic,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, createdRoom)
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode" validate:"required,max=12"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	joinedRoom, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomCode: req.RoomCode,
		UserId:   c.getUserIdFromCtx(r.Context()),
		Username: c.getUsernameFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, joinedRoom)
}

func (c controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	resp, err := c.roomService.LeaveRoom(r.Context(), &room.LeaveRoomParams{
		RoomCode: chi.URLParam(r, "room-code"),
		UserId:   c.getUserIdFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, struct {
		RoomDeleted bool `json:"roomDeleted"`
	}{
		RoomDeleted: resp.IsRoomDeleted,
	})
}

func (c controller) setCurrentVideo(w http.ResponseWriter, r *http.Request) {
	videoPath := chi.URLParam(r, "video-path")

	videoId := r.URL.Query().Get("videoId")
	if videoId == "" {
		videoId = videoPath
	}

	updatedRoom, err := c.roomService.SetCurrentVideo(r.Context(), &room.SetCurrentVideoParams{
		RoomCode:  chi.URLParam(r, "room-code"),
		UserId:    c.getUserIdFromCtx(r.Context()),
		VideoId:   videoId,
		VideoPath: videoPath,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, updatedRoom)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	foundRoom, err := c.roomService.GetRoom(r.Context(), chi.URLParam(r, "room-code"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, foundRoom)
}

func (c controller) listPublicRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.roomService.ListPublicRooms(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rooms)
}
