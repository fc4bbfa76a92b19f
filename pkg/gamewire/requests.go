package gamewire

import "github.com/park285/Cheese-chess-client/pkg/board"

// SuggestRequest is the body of POST /game/{id}/suggest.
type SuggestRequest = board.Coordinate

// SuggestResponse is the list of legal destinations.
type SuggestResponse = []board.Coordinate

// MoveRequest is the body of POST /game/{id}/move.
type MoveRequest = board.Move

// ErrorResponse is returned by the gateway with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	HeaderClientID = "X-Client-Id"
)
