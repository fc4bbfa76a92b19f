package devgateway

import (
	"errors"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrNotMovable  = errors.New("square holds no piece of the side to move")
	ErrIllegalMove = errors.New("illegal move")
	ErrCorruptGame = errors.New("stored moves do not replay")
)

// reconstruct replays stored UCI moves from the initial position.
func reconstruct(moves []string) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, ErrCorruptGame
		}
	}
	return game, nil
}

// destinations lists the legal target squares of the piece on at.
func destinations(game *nchess.Game, at board.Coordinate) ([]board.Coordinate, error) {
	if game.Outcome() != nchess.NoOutcome {
		return nil, ErrGameOver
	}
	pos := game.Position()
	sq := at.Square()
	p := pos.Board().Piece(sq)
	if p == nchess.NoPiece || p.Color() != pos.Turn() {
		return nil, ErrNotMovable
	}
	out := []board.Coordinate{}
	for _, mv := range game.ValidMoves() {
		if mv.S1() != sq || !relocatesOnePiece(mv) {
			continue
		}
		dest := board.FromSquare(mv.S2())
		// promotions repeat the same target once per piece type
		if !board.Contains(out, dest) {
			out = append(out, dest)
		}
	}
	return out, nil
}

// relocatesOnePiece reports whether a move event alone keeps a client board in step:
// castling moves the rook too and en passant captures off the target square.
func relocatesOnePiece(mv nchess.Move) bool {
	return !mv.HasTag(nchess.KingSideCastle) && !mv.HasTag(nchess.QueenSideCastle) && !mv.HasTag(nchess.EnPassant)
}

// play applies m if legal and returns its UCI string plus the events it produces.
// Pawns reaching the last rank promote to a queen.
func play(game *nchess.Game, m board.Move) (string, []gamewire.Event, error) {
	if game.Outcome() != nchess.NoOutcome {
		return "", nil, ErrGameOver
	}
	src, dst := m.Src.Square(), m.Dest.Square()
	uci, check := "", false
	for _, mv := range game.ValidMoves() {
		if mv.S1() != src || mv.S2() != dst || !relocatesOnePiece(mv) {
			continue
		}
		if promo := mv.Promo(); promo != nchess.NoPieceType && promo != nchess.Queen {
			continue
		}
		uci = src.String() + dst.String()
		if mv.Promo() == nchess.Queen {
			uci += "q"
		}
		check = mv.HasTag(nchess.Check)
		break
	}
	if uci == "" {
		return "", nil, ErrIllegalMove
	}
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return "", nil, ErrIllegalMove
	}

	events := []gamewire.Event{gamewire.MoveEvent(m)}
	switch {
	case game.Method() == nchess.Checkmate:
		winner := board.Black
		if game.Outcome() == nchess.WhiteWon {
			winner = board.White
		}
		events = append(events, gamewire.CheckmateEvent(winner))
	case check:
		events = append(events, gamewire.CheckEvent())
	}
	return uci, events, nil
}
