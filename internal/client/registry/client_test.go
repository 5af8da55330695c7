package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnest/watchparty/internal/domain"
)

type staticTokens string

func (t staticTokens) GetToken() string { return string(t) }

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, staticTokens("test-token"), slog.Default()), srv
}

func TestJoinSendsNormalizedCodeAndBearer(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(domain.Room{RoomCode: "XY12KT", CreatorId: "creator-1", MemberCount: 2})
	})
	defer srv.Close()

	room, err := client.Join(context.Background(), " xy12kt ")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/watchparty/join", gotPath)
	assert.Equal(t, map[string]string{"roomCode": "XY12KT"}, gotBody)
	assert.Equal(t, "XY12KT", room.RoomCode)
	assert.Equal(t, 2, room.MemberCount)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuth},
		{"forbidden", http.StatusForbidden, domain.ErrAuthorization},
		{"server error", http.StatusInternalServerError, domain.ErrRegistry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			})
			defer srv.Close()

			_, err := client.Get(context.Background(), "XY12KT")
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope", "server error message is carried through")
		})
	}
}

func TestSetCurrentVideoEscapesPath(t *testing.T) {
	var gotPath string

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(domain.Room{RoomCode: "XY12KT"})
	})
	defer srv.Close()

	_, err := client.SetCurrentVideo(context.Background(), "XY12KT", "movie night/part1")
	require.NoError(t, err)
	assert.Equal(t, "/watchparty/XY12KT/video/movie%20night%2Fpart1", gotPath)
}

func TestIssueToken(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/watchparty/token", r.URL.Path)
		json.NewEncoder(w).Encode(TokenGrant{Token: "abc.def", UserId: "user-1", Username: "alice"})
	})
	defer srv.Close()

	grant, err := client.IssueToken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", grant.Token)
	assert.Equal(t, "user-1", grant.UserId)
	assert.Equal(t, "alice", grant.Username)
}

func TestListPublic(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]domain.Room{
			{RoomCode: "XY12KT", MemberCount: 3},
			{RoomCode: "AB34CD", MemberCount: 1},
		})
	})
	defer srv.Close()

	rooms, err := client.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "XY12KT", rooms[0].RoomCode)
	assert.Equal(t, 3, rooms[0].MemberCount)
}
