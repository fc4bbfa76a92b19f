package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

func (s *Session) onStart() {
	if s.phase != PhaseUninitialized {
		s.logger.Debug("session_start_ignored", zap.String("phase", string(s.phase)))
		return
	}
	s.phase = PhaseConnecting
	s.conn = ConnectionConnecting
	s.setNotice("notice.connecting", map[string]any{"GameID": s.cfg.GameID})
	s.publish()

	s.attempt++
	attempt := s.attempt
	s.connectTimer = time.AfterFunc(s.cfg.ConnectTimeout, func() {
		s.post(connectExpired{attempt: attempt})
	})
	s.logger.Info("session_connecting")
	s.tr.Connect(s.ctx, s.cfg.GameID,
		func() { s.post(connectReady{attempt: attempt}) },
		func(err error) { s.post(connectRejected{attempt: attempt, err: err}) },
	)
}

func (s *Session) onConnectReady(m connectReady) {
	if s.phase != PhaseConnecting || m.attempt != s.attempt {
		s.logger.Debug("session_ready_ignored", zap.String("phase", string(s.phase)))
		return
	}
	s.stopTimer(&s.connectTimer)
	s.phase = PhaseSynchronized
	s.activity = ActivityTurnInProgress
	s.board = board.StartingBoard()
	s.turnOwner = board.White
	s.locked = false
	s.clearSelection()
	s.lastMove = nil
	s.conn = ConnectionOpen
	s.events = s.tr.Events()
	s.setNotice("notice.connected", map[string]any{"GameID": s.cfg.GameID, "Side": s.cfg.LocalSide.Title()})
	s.logger.Info("session_synchronized")
	s.publish()
}

func (s *Session) onConnectRejected(m connectRejected) {
	if s.phase != PhaseConnecting || m.attempt != s.attempt {
		return
	}
	s.logger.Warn("session_connect_rejected", zap.Error(m.err))
	s.terminate(TerminationConnectFailed)
	s.conn = ConnectionClosed
	s.setNotice("notice.connect_failed", map[string]any{"GameID": s.cfg.GameID})
	s.publish()
}

func (s *Session) onConnectExpired(m connectExpired) {
	if s.phase != PhaseConnecting || m.attempt != s.attempt {
		return
	}
	s.logger.Warn("session_connect_timeout", zap.Duration("timeout", s.cfg.ConnectTimeout))
	s.connectTimer = nil
	s.terminate(TerminationConnectFailed)
	s.conn = ConnectionClosed
	s.setNotice("notice.connect_timeout", map[string]any{"GameID": s.cfg.GameID})
	s.publish()
	// abort the pending handshake; a late onReady is ignored by attempt
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.tr.Close(ctx)
	}()
}

func (s *Session) onEvent(ev gamewire.Event) {
	if s.phase != PhaseSynchronized {
		s.logger.Debug("session_event_ignored", zap.String("event", string(ev.Event)), zap.String("phase", string(s.phase)))
		return
	}
	switch ev.Event {
	case gamewire.EventMove:
		if ev.Move == nil || !s.board.Apply(*ev.Move) {
			s.logger.Warn("session_move_unapplied", zap.Any("event", ev))
			return
		}
		mv := *ev.Move
		s.lastMove = &mv
		s.turnOwner = s.turnOwner.Opposite()
		s.locked = false
		s.clearSelection()
		s.activity = ActivityTurnInProgress
		s.stopTimer(&s.reconcile)
		s.seq++
		s.notice = ""
		s.logger.Debug("session_move", zap.String("move", mv.String()), zap.String("turn", string(s.turnOwner)))
	case gamewire.EventCheck:
		s.setNotice("notice.check", nil)
	case gamewire.EventCheckmate:
		winner, ok := ev.Winner()
		if !ok {
			// the side that just moved delivered mate
			winner = s.turnOwner.Opposite()
		}
		s.terminate(TerminationCheckmate)
		s.winner = winner
		s.setNotice("notice.checkmate", map[string]any{"Winner": winner.Title()})
		s.logger.Info("session_checkmate", zap.String("winner", string(winner)))
	default:
		return
	}
	s.publish()
}

func (s *Session) onStreamEnd() {
	s.conn = ConnectionClosed
	if s.phase == PhaseSynchronized {
		s.logger.Warn("session_disconnected")
		s.terminate(TerminationDisconnected)
		s.setNotice("notice.disconnected", nil)
	}
	s.publish()
}

func (s *Session) onClick(at board.Coordinate) {
	if s.phase != PhaseSynchronized || s.locked || s.turnOwner != s.cfg.LocalSide || !at.Valid() {
		s.logger.Debug("session_click_ignored",
			zap.String("at", at.String()),
			zap.String("phase", string(s.phase)),
			zap.Bool("locked", s.locked),
			zap.String("turn", string(s.turnOwner)))
		return
	}
	switch {
	case s.focus == nil:
		p, ok := s.board.At(at)
		if !ok || p.Empty() || p.Color != s.cfg.LocalSide {
			return
		}
		f := at
		s.focus = &f
		s.suggestions = nil
		s.locked = true
		s.activity = ActivityAwaitingSuggestion
		s.seq++
		s.publish()
		s.requestSuggestions(s.seq, at)
	case *s.focus == at:
		s.clearSelection()
		s.activity = ActivityTurnInProgress
		s.publish()
	case board.Contains(s.suggestions, at):
		mv := board.Move{Src: *s.focus, Dest: at}
		s.clearSelection()
		s.locked = true
		s.activity = ActivityTurnInProgress
		s.seq++
		s.publish()
		s.submitMove(s.seq, mv)
	}
}

func (s *Session) requestSuggestions(seq int, at board.Coordinate) {
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		defer cancel()
		dests, err := s.gw.Suggest(ctx, at)
		s.post(suggestResult{seq: seq, at: at, dests: dests, err: err})
	}()
}

func (s *Session) submitMove(seq int, mv board.Move) {
	s.logger.Info("session_submit", zap.String("move", mv.String()))
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		defer cancel()
		err := s.gw.Submit(ctx, mv)
		s.post(submitResult{seq: seq, move: mv, err: err})
	}()
}

func (s *Session) onSuggestResult(m suggestResult) {
	if m.seq != s.seq || s.phase != PhaseSynchronized {
		s.logger.Debug("session_suggest_stale", zap.String("at", m.at.String()))
		return
	}
	s.locked = false
	if m.err != nil {
		s.logger.Warn("session_suggest_failed", zap.String("at", m.at.String()), zap.Error(m.err))
		s.clearSelection()
		s.activity = ActivityTurnInProgress
		switch {
		case isUnreachable(m.err):
			s.setNotice("notice.suggest_unreachable", nil)
		case isRejected(m.err):
			s.setNotice("notice.suggest_rejected", nil)
		default:
			s.setNotice("notice.suggest_failed", map[string]any{"Square": m.at.String()})
		}
		s.publish()
		return
	}
	s.suggestions = m.dests
	s.activity = ActivitySelectionActive
	if len(m.dests) == 0 {
		s.setNotice("notice.no_moves", map[string]any{"Square": m.at.String()})
	}
	s.publish()
}

func (s *Session) onSubmitResult(m submitResult) {
	if m.seq != s.seq || s.phase != PhaseSynchronized {
		return
	}
	if m.err == nil {
		// confirmation arrives on the event feed
		return
	}
	if isUnreachable(m.err) {
		s.logger.Warn("session_submit_unreachable", zap.String("move", m.move.String()), zap.Error(m.err))
		s.locked = false
		s.setNotice("notice.submit_unreachable", map[string]any{"Move": m.move.String()})
		s.publish()
		return
	}
	s.logger.Warn("session_submit_rejected", zap.String("move", m.move.String()), zap.Error(m.err))
	s.setNotice("notice.submit_rejected", map[string]any{"Move": m.move.String()})
	seq := m.seq
	s.stopTimer(&s.reconcile)
	s.reconcile = time.AfterFunc(s.cfg.SubmitReconcile, func() {
		s.post(reconcileExpired{seq: seq})
	})
	s.publish()
}

func (s *Session) onReconcileExpired(m reconcileExpired) {
	if m.seq != s.seq || s.phase != PhaseSynchronized || !s.locked {
		return
	}
	s.reconcile = nil
	s.locked = false
	s.setNotice("notice.submit_unconfirmed", nil)
	s.publish()
}
