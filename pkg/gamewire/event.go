package gamewire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/Cheese-chess-client/pkg/board"
)

// EventType is the discriminator of a pushed game event.
type EventType string

const (
	EventMove      EventType = "move"
	EventCheck     EventType = "check"
	EventCheckmate EventType = "checkmate"
)

var (
	ErrUnknownEvent      = errors.New("unknown event type")
	ErrMissingMove       = errors.New("move event without move")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrNullMove          = errors.New("move source equals destination")
)

// Event is the JSON object pushed over the game websocket.
type Event struct {
	Event     EventType   `json:"event"`
	Move      *board.Move `json:"move,omitempty"`
	WhiteWins *bool       `json:"white_wins,omitempty"`
}

func MoveEvent(m board.Move) Event { return Event{Event: EventMove, Move: &m} }

func CheckEvent() Event { return Event{Event: EventCheck} }

func CheckmateEvent(winner board.Color) Event {
	w := winner == board.White
	return Event{Event: EventCheckmate, WhiteWins: &w}
}

// Winner reports the winner carried by a checkmate event, if any.
func (e Event) Winner() (board.Color, bool) {
	if e.Event != EventCheckmate || e.WhiteWins == nil {
		return "", false
	}
	if *e.WhiteWins {
		return board.White, true
	}
	return board.Black, true
}

// Decode parses and validates one inbound payload.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (e Event) Validate() error {
	switch e.Event {
	case EventMove:
		if e.Move == nil {
			return ErrMissingMove
		}
		if e.Move.Src == e.Move.Dest {
			return fmt.Errorf("%w: %s", ErrNullMove, e.Move)
		}
		if !e.Move.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidCoordinate, e.Move)
		}
	case EventCheck, EventCheckmate:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Event)
	}
	return nil
}

func Encode(e Event) ([]byte, error) { return json.Marshal(e) }
