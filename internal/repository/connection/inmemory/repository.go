package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/repository/connection"
)

// repo maps each live socket to the room member it belongs to. One
// connection per member; a second connect for the same member is
// rejected until the first is removed.
type repo struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	byConn   map[*websocket.Conn]string
	byMember map[string]*websocket.Conn
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		logger:   logger,
		byConn:   make(map[*websocket.Conn]string),
		byMember: make(map[string]*websocket.Conn),
	}
}

// memberKey scopes a user id to a room; the same user may sit in
// different rooms over time but only one at once per connection.
func memberKey(roomCode, userId string) string {
	return roomCode + ":" + userId
}

func (r *repo) Add(conn *websocket.Conn, roomCode, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey(roomCode, userId)
	if r.byConn[conn] != "" || r.byMember[key] != nil {
		r.logger.Info("connection.inmemory.Add", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.byConn[conn] = key
	r.byMember[key] = conn

	r.logger.Debug("connection.inmemory.Add", "key", key)
	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.byConn[conn]
	if !ok {
		r.logger.Info("connection.inmemory.RemoveByConn", "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byMember, key)

	r.logger.Debug("connection.inmemory.RemoveByConn", "key", key)
	return nil
}

func (r *repo) RemoveByMember(roomCode, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey(roomCode, userId)
	conn, ok := r.byMember[key]
	if !ok {
		r.logger.Info("connection.inmemory.RemoveByMember", "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byMember, key)

	r.logger.Debug("connection.inmemory.RemoveByMember", "key", key)
	return nil
}

func (r *repo) GetConn(roomCode, userId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byMember[memberKey(roomCode, userId)]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
