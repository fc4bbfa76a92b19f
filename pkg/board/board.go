package board

import (
	nchess "github.com/corentings/chess/v2"
)

// Board is an 8x8 grid indexed [y][x]. Arrays copy by value, so a Board handed
// out in a snapshot never aliases the owner's board.
type Board [Size][Size]Piece

// StartingBoard returns the standard initial layout.
func StartingBoard() Board {
	var b Board
	pos := nchess.NewGame().Position().Board()
	for i := 0; i < Size*Size; i++ {
		sq := nchess.Square(i)
		p := pos.Piece(sq)
		if p == nchess.NoPiece {
			continue
		}
		c := FromSquare(sq)
		b[c.Y][c.X] = Piece{Kind: kindFrom(p.Type()), Color: colorFrom(p.Color())}
	}
	return b
}

// At returns the piece on c; ok is false for empty or out-of-range squares.
func (b *Board) At(c Coordinate) (Piece, bool) {
	if !c.Valid() {
		return Piece{}, false
	}
	p := b[c.Y][c.X]
	return p, !p.Empty()
}

// Apply relocates whatever stands on m.Src to m.Dest. Legality is the server's concern.
func (b *Board) Apply(m Move) bool {
	if !m.Valid() {
		return false
	}
	b[m.Dest.Y][m.Dest.X] = b[m.Src.Y][m.Src.X]
	b[m.Src.Y][m.Src.X] = Piece{}
	return true
}

// Count returns the number of occupied squares.
func (b *Board) Count() int {
	n := 0
	for y := range b {
		for x := range b[y] {
			if !b[y][x].Empty() {
				n++
			}
		}
	}
	return n
}

// Square converts to the chess library's square (file = X, rank = 7-Y).
func (c Coordinate) Square() nchess.Square {
	return nchess.NewSquare(nchess.File(c.X), nchess.Rank(Size-1-c.Y))
}

// FromSquare is the inverse of Coordinate.Square.
func FromSquare(sq nchess.Square) Coordinate {
	return Coordinate{X: int(sq.File()), Y: Size - 1 - int(sq.Rank())}
}

func kindFrom(pt nchess.PieceType) Kind {
	switch pt {
	case nchess.King:
		return King
	case nchess.Queen:
		return Queen
	case nchess.Rook:
		return Rook
	case nchess.Bishop:
		return Bishop
	case nchess.Knight:
		return Knight
	default:
		return Pawn
	}
}

func colorFrom(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}
