package chesspresenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/park285/Cheese-chess-client/internal/session"
	"github.com/park285/Cheese-chess-client/pkg/board"
)

func startSnapshot(side board.Color) session.Snapshot {
	return session.Snapshot{
		Version:          1,
		GameID:           3,
		LocalSide:        side,
		Phase:            session.PhaseSynchronized,
		Activity:         session.ActivityTurnInProgress,
		Board:            board.StartingBoard(),
		TurnOwner:        board.White,
		ConnectionStatus: session.ConnectionOpen,
	}
}

func TestBoardOrientation(t *testing.T) {
	f := NewFormatter()

	white := strings.Split(f.Board(startSnapshot(board.White)), "\n")
	if !strings.HasPrefix(white[0], "8 r") {
		t.Fatalf("white view should start with black's back rank: %q", white[0])
	}
	if !strings.HasPrefix(white[7], "1 R") {
		t.Fatalf("white view should end with white's back rank: %q", white[7])
	}
	if !strings.HasPrefix(strings.TrimSpace(white[8]), "a") {
		t.Fatalf("files should run a..h: %q", white[8])
	}

	black := strings.Split(f.Board(startSnapshot(board.Black)), "\n")
	if !strings.HasPrefix(black[0], "1 R") {
		t.Fatalf("black view should start with white's back rank: %q", black[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(black[8]), "h") {
		t.Fatalf("black view files should run h..a: %q", black[8])
	}
}

func TestBoardMarksFocusAndSuggestions(t *testing.T) {
	s := startSnapshot(board.White)
	focus := board.Coordinate{X: 4, Y: 6}
	s.Focus = &focus
	s.SuggestedDestinations = []board.Coordinate{{X: 4, Y: 5}, {X: 4, Y: 4}}

	out := NewFormatter().Board(s)
	if !strings.Contains(out, "[P]") {
		t.Fatalf("focus not bracketed:\n%s", out)
	}
	if strings.Count(out, "*") != 2 {
		t.Fatalf("want 2 suggestion markers:\n%s", out)
	}
}

func TestStatusLines(t *testing.T) {
	f := NewFormatter()

	s := startSnapshot(board.White)
	if got := f.Status(s); !strings.Contains(got, "(your move)") {
		t.Fatalf("status = %q", got)
	}

	s.Phase = session.PhaseTerminated
	s.Termination = session.TerminationCheckmate
	s.Winner = board.Black
	if got := f.Status(s); !strings.Contains(got, "checkmate, Black wins") {
		t.Fatalf("status = %q", got)
	}

	s.Termination = session.TerminationDisconnected
	if got := f.Status(s); !strings.Contains(got, "disconnected") {
		t.Fatalf("status = %q", got)
	}
}

func TestPresenterSkipsStaleVersions(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf, nil)

	s := startSnapshot(board.White)
	s.LastNotice = "Check!"
	if err := p.Show(s); err != nil {
		t.Fatalf("show: %v", err)
	}
	first := buf.Len()
	if first == 0 || !strings.Contains(buf.String(), "» Check!") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}

	if err := p.Show(s); err != nil {
		t.Fatalf("show: %v", err)
	}
	if buf.Len() != first {
		t.Fatalf("same version rendered twice")
	}

	s.Version = 2
	_ = p.Show(s)
	if buf.Len() == first {
		t.Fatalf("newer version not rendered")
	}
}
