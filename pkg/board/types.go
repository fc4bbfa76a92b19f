package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the board edge length; coordinates run 0..Size-1 on both axes.
const Size = 8

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return "", false
	}
}

func (c Color) Valid() bool { return c == White || c == Black }

// Title is the display form ("White", "Black").
func (c Color) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Opposite returns the other side. An invalid color stays invalid.
func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return c
	}
}

// Coordinate identifies a cell. Y grows from black's back rank (0) to white's (7).
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinate) Valid() bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size
}

// String renders the coordinate in algebraic form ("e2").
func (c Coordinate) String() string {
	if !c.Valid() {
		return fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	return c.Square().String()
}

// ParseCoordinate accepts algebraic squares ("e2") or raw "x,y" pairs ("4,6").
func ParseCoordinate(s string) (Coordinate, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if x, y, ok := strings.Cut(v, ","); ok {
		xi, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return Coordinate{}, fmt.Errorf("parse x: %w", err)
		}
		yi, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return Coordinate{}, fmt.Errorf("parse y: %w", err)
		}
		c := Coordinate{X: xi, Y: yi}
		if !c.Valid() {
			return Coordinate{}, fmt.Errorf("coordinate out of range: %s", s)
		}
		return c, nil
	}
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Coordinate{}, fmt.Errorf("invalid square: %q", s)
	}
	return Coordinate{X: int(v[0] - 'a'), Y: Size - 1 - int(v[1]-'1')}, nil
}

// Contains reports whether c is in list.
func Contains(list []Coordinate, c Coordinate) bool {
	for _, lc := range list {
		if lc == c {
			return true
		}
	}
	return false
}

// Move is a source to destination transition.
type Move struct {
	Src  Coordinate `json:"src_coordinate"`
	Dest Coordinate `json:"dest_coordinate"`
}

// Valid reports whether both squares are on the board and distinct.
func (m Move) Valid() bool { return m.Src.Valid() && m.Dest.Valid() && m.Src != m.Dest }

// String renders the move in UCI long form ("e2e4").
func (m Move) String() string { return m.Src.String() + m.Dest.String() }

// Kind is the piece type.
type Kind string

const (
	Pawn   Kind = "pawn"
	Rook   Kind = "rook"
	Knight Kind = "knight"
	Bishop Kind = "bishop"
	Queen  Kind = "queen"
	King   Kind = "king"
)

// Piece occupies a square. The zero value is an empty square.
type Piece struct {
	Kind  Kind  `json:"kind,omitempty"`
	Color Color `json:"color,omitempty"`
}

func (p Piece) Empty() bool { return p.Kind == "" }
