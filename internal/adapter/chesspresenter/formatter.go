package chesspresenter

import (
	"fmt"
	"strings"

	"github.com/park285/Cheese-chess-client/internal/session"
	"github.com/park285/Cheese-chess-client/pkg/board"
)

const (
	emptySquare   = "."
	suggestMarker = "*"
)

// Formatter renders session snapshots into terminal text blocks.
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

// Snapshot renders the board, a status line and the latest notice.
func (f *Formatter) Snapshot(s session.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(f.Board(s))
	sb.WriteString("\n")
	sb.WriteString(f.Status(s))
	if notice := strings.TrimSpace(s.LastNotice); notice != "" {
		sb.WriteString("\n» ")
		sb.WriteString(notice)
	}
	return sb.String()
}

// Board draws the grid from the local side's point of view.
// Focus is bracketed, suggested destinations are starred.
func (f *Formatter) Board(s session.Snapshot) string {
	rows := make([]int, board.Size)
	cols := make([]int, board.Size)
	for i := 0; i < board.Size; i++ {
		rows[i], cols[i] = i, i
	}
	if s.LocalSide == board.Black {
		reverse(rows)
		reverse(cols)
	}

	var sb strings.Builder
	for _, y := range rows {
		sb.WriteString(fmt.Sprintf("%d ", board.Size-y))
		for _, x := range cols {
			c := board.Coordinate{X: x, Y: y}
			cell := pieceToken(s.Board[y][x])
			if board.Contains(s.SuggestedDestinations, c) {
				if cell == emptySquare {
					cell = suggestMarker
				} else {
					cell = suggestMarker + cell
				}
			}
			if s.Focus != nil && *s.Focus == c {
				cell = "[" + cell + "]"
			}
			sb.WriteString(fmt.Sprintf("%-4s", cell))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for _, x := range cols {
		sb.WriteString(fmt.Sprintf("%-4c", 'a'+x))
	}
	return strings.TrimRight(sb.String(), " ")
}

func (f *Formatter) Status(s session.Snapshot) string {
	parts := []string{
		fmt.Sprintf("game %d", s.GameID),
		"you: " + s.LocalSide.Title(),
	}
	switch s.Phase {
	case session.PhaseTerminated:
		parts = append(parts, formatTermination(s))
	case session.PhaseSynchronized:
		turn := "to move: " + s.TurnOwner.Title()
		if s.MyTurn() {
			turn += " (your move)"
		}
		parts = append(parts, turn)
		if s.BoardLocked {
			parts = append(parts, "waiting")
		}
		if s.LastMove != nil {
			parts = append(parts, "last: "+s.LastMove.String())
		}
	default:
		parts = append(parts, string(s.Phase))
	}
	parts = append(parts, "link: "+string(s.ConnectionStatus))
	return strings.Join(parts, " | ")
}

func formatTermination(s session.Snapshot) string {
	switch s.Termination {
	case session.TerminationCheckmate:
		return "checkmate, " + s.Winner.Title() + " wins"
	case session.TerminationDisconnected:
		return "disconnected"
	case session.TerminationConnectFailed:
		return "connection failed"
	default:
		return "finished"
	}
}

func pieceToken(p board.Piece) string {
	if p.Empty() {
		return emptySquare
	}
	var r rune
	switch p.Kind {
	case board.King:
		r = 'k'
	case board.Queen:
		r = 'q'
	case board.Rook:
		r = 'r'
	case board.Bishop:
		r = 'b'
	case board.Knight:
		r = 'n'
	default:
		r = 'p'
	}
	if p.Color == board.White {
		return strings.ToUpper(string(r))
	}
	return string(r)
}

func reverse(xs []int) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
