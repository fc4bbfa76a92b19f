package devgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-client/internal/transport"
	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	srv := NewServer(store, WithLogger(zap.NewNop()), WithPollInterval(50*time.Millisecond))
	hs := httptest.NewServer(srv.Routes())
	t.Cleanup(hs.Close)
	return hs, store
}

func postJSON(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func coord(x, y int) board.Coordinate { return board.Coordinate{X: x, Y: y} }

func TestCreateGame(t *testing.T) {
	hs, _ := newTestServer(t)

	status, _ := postJSON(t, hs.URL+"/game/3/create", nil)
	require.Equal(t, http.StatusCreated, status)

	status, raw := postJSON(t, hs.URL+"/game/3/create", nil)
	require.Equal(t, http.StatusBadRequest, status)
	var er gamewire.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &er))
	require.Equal(t, "game already exists", er.Error)

	for _, bad := range []string{"0", "-1", "abc"} {
		status, _ = postJSON(t, hs.URL+"/game/"+bad+"/create", nil)
		require.Equal(t, http.StatusBadRequest, status, bad)
	}
}

func TestSuggestEndpoint(t *testing.T) {
	hs, _ := newTestServer(t)
	postJSON(t, hs.URL+"/game/1/create", nil)

	status, raw := postJSON(t, hs.URL+"/game/1/suggest", coord(4, 6))
	require.Equal(t, http.StatusOK, status)
	var dests gamewire.SuggestResponse
	require.NoError(t, json.Unmarshal(raw, &dests))
	require.ElementsMatch(t, []board.Coordinate{coord(4, 5), coord(4, 4)}, dests)

	cases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"empty square", "/game/1/suggest", coord(4, 4), http.StatusBadRequest},
		{"opponent piece", "/game/1/suggest", coord(4, 1), http.StatusBadRequest},
		{"off board", "/game/1/suggest", coord(8, 0), http.StatusBadRequest},
		{"bad body", "/game/1/suggest", "e2", http.StatusBadRequest},
		{"unknown game", "/game/2/suggest", coord(4, 6), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := postJSON(t, hs.URL+tc.path, tc.body)
			require.Equal(t, tc.status, status)
		})
	}
}

func TestMoveEndpoint(t *testing.T) {
	hs, store := newTestServer(t)
	postJSON(t, hs.URL+"/game/1/create", nil)

	e2e4 := board.Move{Src: coord(4, 6), Dest: coord(4, 4)}
	status, _ := postJSON(t, hs.URL+"/game/1/move", e2e4)
	require.Equal(t, http.StatusOK, status)

	// same move again is now illegal: it is black's turn and e2 is empty
	status, _ = postJSON(t, hs.URL+"/game/1/move", e2e4)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = postJSON(t, hs.URL+"/game/9/move", e2e4)
	require.Equal(t, http.StatusNotFound, status)

	moves, err := store.Moves(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"e2e4"}, moves)

	// after the move black's pieces are the movable ones
	status, _ = postJSON(t, hs.URL+"/game/1/suggest", coord(4, 1))
	require.Equal(t, http.StatusOK, status)
}

func TestMoveEndpointCheckmate(t *testing.T) {
	hs, store := newTestServer(t)
	postJSON(t, hs.URL+"/game/1/create", nil)

	for _, m := range []board.Move{
		{Src: coord(5, 6), Dest: coord(5, 5)},
		{Src: coord(4, 1), Dest: coord(4, 3)},
		{Src: coord(6, 6), Dest: coord(6, 4)},
		{Src: coord(3, 0), Dest: coord(7, 4)},
	} {
		status, raw := postJSON(t, hs.URL+"/game/1/move", m)
		require.Equal(t, http.StatusOK, status, string(raw))
	}

	events, err := store.ReadEvents(context.Background(), 1, "0", -1)
	require.NoError(t, err)
	require.Len(t, events, 5)
	last := events[len(events)-1].Event
	require.Equal(t, gamewire.EventCheckmate, last.Event)
	require.NotNil(t, last.WhiteWins)
	require.False(t, *last.WhiteWins)

	status, _ := postJSON(t, hs.URL+"/game/1/suggest", coord(0, 6))
	require.Equal(t, http.StatusBadRequest, status)
}

func wsURL(hs *httptest.Server) string { return "ws" + strings.TrimPrefix(hs.URL, "http") }

func dialJoin(t *testing.T, hs *httptest.Server, id int64) (*transport.WebSocket, error) {
	t.Helper()
	ws := transport.NewWebSocket(wsURL(hs), transport.WithPingInterval(0))
	t.Cleanup(func() { _ = ws.Close(context.Background()) })
	done := make(chan error, 1)
	ws.Connect(context.Background(), id, func() { done <- nil }, func(err error) { done <- err })
	select {
	case err := <-done:
		return ws, err
	case <-time.After(3 * time.Second):
		t.Fatalf("join did not complete")
		return nil, nil
	}
}

func nextEvent(t *testing.T, ch <-chan gamewire.Event) gamewire.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "feed closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatalf("no event")
		return gamewire.Event{}
	}
}

func TestJoinUnknownGame(t *testing.T) {
	hs, _ := newTestServer(t)
	_, err := dialJoin(t, hs, 42)
	require.ErrorIs(t, err, transport.ErrHandshakeRejected)
	require.Contains(t, err.Error(), "404")
}

func TestJoinReplaysThenFollows(t *testing.T) {
	hs, _ := newTestServer(t)
	postJSON(t, hs.URL+"/game/1/create", nil)
	e2e4 := board.Move{Src: coord(4, 6), Dest: coord(4, 4)}
	postJSON(t, hs.URL+"/game/1/move", e2e4)

	ws, err := dialJoin(t, hs, 1)
	require.NoError(t, err)
	events := ws.Events()

	ev := nextEvent(t, events)
	require.Equal(t, gamewire.EventMove, ev.Event)
	require.Equal(t, e2e4, *ev.Move)

	e7e5 := board.Move{Src: coord(4, 1), Dest: coord(4, 3)}
	status, _ := postJSON(t, hs.URL+"/game/1/move", e7e5)
	require.Equal(t, http.StatusOK, status)

	ev = nextEvent(t, events)
	require.Equal(t, e7e5, *ev.Move)
}
