package transport

import (
	"context"
	"errors"

	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

// State is the lifecycle of one game connection.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

var (
	ErrHandshakeRejected = errors.New("handshake rejected")
	ErrAlreadyConnected  = errors.New("connection already active")
	ErrClosed            = errors.New("transport closed")
)

type HeaderProvider func() map[string]string

type StateCallback func(state State)

// Client is the session-facing contract of a game connection.
// Exactly one of onReady / onReject fires per Connect call.
type Client interface {
	Connect(ctx context.Context, gameID int64, onReady func(), onReject func(error))
	IsConnected() bool
	// Events is the feed of the current connection; it is closed when the connection ends.
	Events() <-chan gamewire.Event
	Close(ctx context.Context) error
}
