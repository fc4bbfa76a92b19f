package session

import (
	"github.com/park285/Cheese-chess-client/pkg/board"
)

// msg is anything processed by the session loop.
type msg interface{ isSessionMsg() }

type startMsg struct{}

type clickMsg struct{ at board.Coordinate }

type connectReady struct{ attempt int }

type connectRejected struct {
	attempt int
	err     error
}

type connectExpired struct{ attempt int }

type suggestResult struct {
	seq   int
	at    board.Coordinate
	dests []board.Coordinate
	err   error
}

type submitResult struct {
	seq  int
	move board.Move
	err  error
}

type reconcileExpired struct{ seq int }

// subscribeMsg closes registered once the loop holds ch.
type subscribeMsg struct {
	ch         chan Snapshot
	registered chan struct{}
}

type unsubscribeMsg struct{ ch chan Snapshot }

// syncMsg replies once every earlier inbox message has been handled.
type syncMsg struct{ reply chan Snapshot }

func (startMsg) isSessionMsg()         {}
func (clickMsg) isSessionMsg()         {}
func (connectReady) isSessionMsg()     {}
func (connectRejected) isSessionMsg()  {}
func (connectExpired) isSessionMsg()   {}
func (suggestResult) isSessionMsg()    {}
func (submitResult) isSessionMsg()     {}
func (reconcileExpired) isSessionMsg() {}
func (subscribeMsg) isSessionMsg()     {}
func (unsubscribeMsg) isSessionMsg()   {}
func (syncMsg) isSessionMsg()          {}
