package session

import (
	"context"
	"errors"
	"time"

	"github.com/park285/Cheese-chess-client/pkg/board"
)

var (
	ErrMissingGameID = errors.New("session: game id must be a positive integer")
	ErrMissingSide   = errors.New("session: local side must be white or black")
	ErrMissingDeps   = errors.New("session: transport and gateway are required")
)

// Phase is the top-level state of the machine.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseConnecting    Phase = "connecting"
	PhaseSynchronized  Phase = "synchronized"
	PhaseTerminated    Phase = "terminated"
)

// Activity refines PhaseSynchronized.
type Activity string

const (
	ActivityNone               Activity = ""
	ActivityTurnInProgress     Activity = "turn_in_progress"
	ActivityAwaitingSuggestion Activity = "awaiting_suggestion"
	ActivitySelectionActive    Activity = "selection_active"
)

// Termination refines PhaseTerminated.
type Termination string

const (
	TerminationNone          Termination = ""
	TerminationCheckmate     Termination = "checkmate"
	TerminationDisconnected  Termination = "disconnected"
	TerminationConnectFailed Termination = "connect_failed"
)

type ConnectionStatus string

const (
	ConnectionConnecting ConnectionStatus = "connecting"
	ConnectionOpen       ConnectionStatus = "open"
	ConnectionClosed     ConnectionStatus = "closed"
)

// Gateway is the request/response channel for one game.
type Gateway interface {
	Suggest(ctx context.Context, at board.Coordinate) ([]board.Coordinate, error)
	Submit(ctx context.Context, m board.Move) error
}

// Notices renders user-facing notice templates.
type Notices interface {
	Render(key string, data any) (string, error)
}

type Config struct {
	GameID    int64
	LocalSide board.Color

	// ConnectTimeout bounds the handshake; expiry counts as a rejection.
	ConnectTimeout time.Duration
	// RequestTimeout bounds each suggest/submit call.
	RequestTimeout time.Duration
	// SubmitReconcile is how long a rejected submit keeps the board locked
	// waiting for the event feed before unlocking.
	SubmitReconcile time.Duration
}

func (c Config) validate() error {
	if c.GameID <= 0 {
		return ErrMissingGameID
	}
	if !c.LocalSide.Valid() {
		return ErrMissingSide
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.SubmitReconcile <= 0 {
		c.SubmitReconcile = 5 * time.Second
	}
	return c
}

// Snapshot is the read-only view handed to the renderer after every transition.
type Snapshot struct {
	Version int

	GameID    int64
	LocalSide board.Color

	Phase       Phase
	Activity    Activity
	Termination Termination
	Winner      board.Color

	Board                 board.Board
	TurnOwner             board.Color
	BoardLocked           bool
	Focus                 *board.Coordinate
	SuggestedDestinations []board.Coordinate
	LastMove              *board.Move

	ConnectionStatus ConnectionStatus
	LastNotice       string
}

// MyTurn reports whether a focus gesture could currently be accepted.
func (s Snapshot) MyTurn() bool {
	return s.Phase == PhaseSynchronized && !s.BoardLocked && s.TurnOwner == s.LocalSide
}
