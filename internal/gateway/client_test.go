package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	opts = append([]Option{WithDial(func(string) (net.Conn, error) { return ln.Dial() })}, opts...)
	return NewClient("http://gateway.test/", 7, opts...)
}

func TestSuggestReturnsDestinations(t *testing.T) {
	var gotPath, gotMethod, gotClient string
	var gotBody board.Coordinate
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotMethod = string(ctx.Method())
		gotClient = string(ctx.Request.Header.Peek(gamewire.HeaderClientID))
		_ = json.Unmarshal(ctx.PostBody(), &gotBody)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`[{"x":4,"y":5},{"x":4,"y":4},{"x":12,"y":0}]`)
	}, WithHeaderProvider(func() map[string]string { return map[string]string{gamewire.HeaderClientID: "c-1"} }))

	dests, err := c.Suggest(context.Background(), board.Coordinate{X: 4, Y: 6})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if gotPath != "/game/7/suggest" || gotMethod != fasthttp.MethodPost {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotBody != (board.Coordinate{X: 4, Y: 6}) {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if gotClient != "c-1" {
		t.Fatalf("expected client header, got %q", gotClient)
	}
	want := []board.Coordinate{{X: 4, Y: 5}, {X: 4, Y: 4}}
	if len(dests) != len(want) || dests[0] != want[0] || dests[1] != want[1] {
		t.Fatalf("unexpected destinations: %+v", dests)
	}
}

func TestSuggestEmptyIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[]`)
	})
	dests, err := c.Suggest(context.Background(), board.Coordinate{X: 0, Y: 7})
	if err != nil || len(dests) != 0 {
		t.Fatalf("expected empty result, got %+v err=%v", dests, err)
	}
}

func TestRejectedStatus(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"error":"not your turn"}`)
	})
	_, err := c.Suggest(context.Background(), board.Coordinate{X: 4, Y: 1})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusBadRequest {
		t.Fatalf("expected StatusError with 400, got %v", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Fatalf("rejection must not look unreachable")
	}
}

func TestUnreachable(t *testing.T) {
	calls := 0
	c := NewClient("http://gateway.test", 7, WithDial(func(string) (net.Conn, error) {
		calls++
		return nil, errors.New("connection refused")
	}))
	err := c.Submit(context.Background(), board.Move{Src: board.Coordinate{X: 4, Y: 6}, Dest: board.Coordinate{X: 4, Y: 4}})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if errors.Is(err, ErrRejected) {
		t.Fatalf("unreachable must not look rejected")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt without retry, got %d", calls)
	}
}

func TestSubmitSendsMoveAndIgnoresBody(t *testing.T) {
	var got board.Move
	var path string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusCreated)
		ctx.SetBodyString(`not json at all`)
	})
	m := board.Move{Src: board.Coordinate{X: 4, Y: 6}, Dest: board.Coordinate{X: 4, Y: 4}}
	if err := c.Submit(context.Background(), m); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if path != "/game/7/move" || got != m {
		t.Fatalf("unexpected submit: path=%s move=%+v", path, got)
	}
}

func TestCanceledContextIsUnreachable(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString(`[]`) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Suggest(ctx, board.Coordinate{X: 1, Y: 1}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable for canceled context, got %v", err)
	}
}
