package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-client/internal/gateway"
	"github.com/park285/Cheese-chess-client/internal/obslog"
	"github.com/park285/Cheese-chess-client/internal/transport"
	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

const (
	inboxSize      = 64
	subscriberSize = 16
)

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotices sets the renderer for notice keys. Without one, notices carry the raw key.
func WithNotices(n Notices) Option {
	return func(s *Session) { s.notices = n }
}

// Session owns the authoritative client-side view of one game.
// All mutation happens on the loop goroutine; callers talk to it through the inbox.
type Session struct {
	cfg     Config
	tr      transport.Client
	gw      Gateway
	notices Notices
	logger  *zap.Logger

	inbox  chan msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// loop-owned state
	version     int
	phase       Phase
	activity    Activity
	termination Termination
	winner      board.Color
	board       board.Board
	turnOwner   board.Color
	locked      bool
	focus       *board.Coordinate
	suggestions []board.Coordinate
	lastMove    *board.Move
	conn        ConnectionStatus
	notice      string

	events       <-chan gamewire.Event
	attempt      int
	seq          int
	connectTimer *time.Timer
	reconcile    *time.Timer
	subscribers  map[chan Snapshot]struct{}

	latest atomic.Pointer[Snapshot]
}

// New validates cfg and starts the session loop. The loop lives until parent is
// canceled or Close is called; Start opens the connection.
func New(parent context.Context, cfg Config, tr transport.Client, gw Gateway, opts ...Option) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if tr == nil || gw == nil {
		return nil, ErrMissingDeps
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		cfg:         cfg.withDefaults(),
		tr:          tr,
		gw:          gw,
		logger:      obslog.L(),
		inbox:       make(chan msg, inboxSize),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		phase:       PhaseUninitialized,
		board:       board.StartingBoard(),
		turnOwner:   board.White,
		locked:      true,
		conn:        ConnectionClosed,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.Int64("game_id", cfg.GameID), zap.String("side", string(cfg.LocalSide)))
	s.publish()
	go s.loop()
	return s, nil
}

// Start begins the connection attempt. Calls after the first are ignored.
func (s *Session) Start() { s.post(startMsg{}) }

// Click delivers a square gesture from the local player.
func (s *Session) Click(at board.Coordinate) { s.post(clickMsg{at: at}) }

// Snapshot returns the most recently published view.
func (s *Session) Snapshot() Snapshot { return *s.latest.Load() }

// Subscribe returns a channel that first receives the current snapshot and then
// every later one. A slow reader only loses intermediate snapshots, never the newest.
// The channel is closed by cancel or when the session stops.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberSize)
	m := subscribeMsg{ch: ch, registered: make(chan struct{})}
	select {
	case <-s.done:
		close(ch)
		return ch, func() {}
	default:
	}
	select {
	case s.inbox <- m:
	case <-s.done:
		close(ch)
		return ch, func() {}
	}
	select {
	case <-m.registered:
	case <-s.done:
		select {
		case <-m.registered:
			// shutdown already closed it
		default:
			// the loop stopped before reading the request
			close(ch)
			return ch, func() {}
		}
	}
	return ch, func() { s.post(unsubscribeMsg{ch: ch}) }
}

// Close stops the loop, closes subscriber channels and the transport.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) post(m msg) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case m := <-s.inbox:
			s.handle(m)
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				s.onStreamEnd()
				continue
			}
			s.onEvent(ev)
		}
	}
}

func (s *Session) handle(m msg) {
	switch m := m.(type) {
	case startMsg:
		s.onStart()
	case connectReady:
		s.onConnectReady(m)
	case connectRejected:
		s.onConnectRejected(m)
	case connectExpired:
		s.onConnectExpired(m)
	case clickMsg:
		s.onClick(m.at)
	case suggestResult:
		s.onSuggestResult(m)
	case submitResult:
		s.onSubmitResult(m)
	case reconcileExpired:
		s.onReconcileExpired(m)
	case subscribeMsg:
		s.subscribers[m.ch] = struct{}{}
		close(m.registered)
		deliver(m.ch, s.Snapshot())
	case unsubscribeMsg:
		if _, ok := s.subscribers[m.ch]; ok {
			delete(s.subscribers, m.ch)
			close(m.ch)
		}
	case syncMsg:
		m.reply <- s.Snapshot()
	}
}

func (s *Session) shutdown() {
	s.stopTimer(&s.connectTimer)
	s.stopTimer(&s.reconcile)
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.tr.Close(ctx); err != nil {
		s.logger.Debug("session_transport_close", zap.Error(err))
	}
}

// publish freezes the loop-owned state into a new Snapshot and fans it out.
func (s *Session) publish() {
	s.version++
	snap := Snapshot{
		Version:          s.version,
		GameID:           s.cfg.GameID,
		LocalSide:        s.cfg.LocalSide,
		Phase:            s.phase,
		Activity:         s.activity,
		Termination:      s.termination,
		Winner:           s.winner,
		Board:            s.board,
		TurnOwner:        s.turnOwner,
		BoardLocked:      s.locked,
		ConnectionStatus: s.conn,
		LastNotice:       s.notice,
	}
	if s.focus != nil {
		f := *s.focus
		snap.Focus = &f
	}
	if len(s.suggestions) > 0 {
		snap.SuggestedDestinations = append([]board.Coordinate(nil), s.suggestions...)
	}
	if s.lastMove != nil {
		m := *s.lastMove
		snap.LastMove = &m
	}
	s.latest.Store(&snap)
	for ch := range s.subscribers {
		deliver(ch, snap)
	}
}

func deliver(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	// full: drop the oldest pending snapshot so the newest always lands
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func (s *Session) setNotice(key string, data any) {
	if s.notices == nil {
		s.notice = key
		return
	}
	text, err := s.notices.Render(key, data)
	if err != nil {
		s.logger.Warn("session_notice_render", zap.String("key", key), zap.Error(err))
		s.notice = key
		return
	}
	s.notice = text
}

func (s *Session) stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (s *Session) clearSelection() {
	s.focus = nil
	s.suggestions = nil
}

func (s *Session) terminate(reason Termination) {
	s.stopTimer(&s.connectTimer)
	s.stopTimer(&s.reconcile)
	s.phase = PhaseTerminated
	s.activity = ActivityNone
	s.termination = reason
	s.locked = true
	s.clearSelection()
	// outstanding gateway responses become stale
	s.seq++
}

func isUnreachable(err error) bool {
	return errors.Is(err, gateway.ErrUnreachable)
}

func isRejected(err error) bool {
	return errors.Is(err, gateway.ErrRejected)
}
