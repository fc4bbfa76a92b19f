package gamewire

import (
	"errors"
	"testing"

	"github.com/park285/Cheese-chess-client/pkg/board"
)

func TestDecodeVariants(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"move","move":{"src_coordinate":{"x":4,"y":6},"dest_coordinate":{"x":4,"y":4}}}`))
	if err != nil {
		t.Fatalf("decode move: %v", err)
	}
	want := board.Move{Src: board.Coordinate{X: 4, Y: 6}, Dest: board.Coordinate{X: 4, Y: 4}}
	if ev.Event != EventMove || ev.Move == nil || *ev.Move != want {
		t.Fatalf("unexpected move event: %+v", ev)
	}

	ev, err = Decode([]byte(`{"event":"check"}`))
	if err != nil || ev.Event != EventCheck {
		t.Fatalf("decode check: %+v %v", ev, err)
	}

	ev, err = Decode([]byte(`{"event":"checkmate","white_wins":false}`))
	if err != nil {
		t.Fatalf("decode checkmate: %v", err)
	}
	if w, ok := ev.Winner(); !ok || w != board.Black {
		t.Fatalf("expected black winner, got %q %v", w, ok)
	}

	ev, err = Decode([]byte(`{"event":"checkmate"}`))
	if err != nil {
		t.Fatalf("decode bare checkmate: %v", err)
	}
	if _, ok := ev.Winner(); ok {
		t.Fatalf("bare checkmate should not carry a winner")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{"event":`, nil},
		{"unknown type", `{"event":"castle"}`, ErrUnknownEvent},
		{"move without payload", `{"event":"move"}`, ErrMissingMove},
		{"null move", `{"event":"move","move":{"src_coordinate":{"x":4,"y":6},"dest_coordinate":{"x":4,"y":6}}}`, ErrNullMove},
		{"out of range", `{"event":"move","move":{"src_coordinate":{"x":9,"y":6},"dest_coordinate":{"x":4,"y":4}}}`, ErrInvalidCoordinate},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.raw))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestEncodeCheckmateCarriesWinner(t *testing.T) {
	raw, err := Encode(CheckmateEvent(board.White))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != `{"event":"checkmate","white_wins":true}` {
		t.Fatalf("unexpected payload: %s", raw)
	}
}
