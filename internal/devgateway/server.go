package devgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/Cheese-chess-client/internal/obslog"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

const (
	defaultPoll  = 500 * time.Millisecond
	writeTimeout = 3 * time.Second
)

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPollInterval bounds how long a join stream blocks on redis before re-checking its context.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.poll = d
		}
	}
}

// Server is a reference game gateway: rules from the chess library, state in redis.
type Server struct {
	store  *Store
	logger *zap.Logger
	poll   time.Duration
}

func NewServer(store *Store, opts ...Option) *Server {
	s := &Server{store: store, logger: obslog.L(), poll: defaultPoll}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/game/{id}", func(r chi.Router) {
		r.Post("/create", s.handleCreate)
		r.Get("/join", s.handleJoin)
		r.Post("/suggest", s.handleSuggest)
		r.Post("/move", s.handleMove)
	})
	return r
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	err := s.store.Create(r.Context(), id)
	if errors.Is(err, ErrGameExists) {
		writeError(w, http.StatusBadRequest, "game already exists")
		return
	}
	if err != nil {
		s.logger.Error("devgw_create", zap.Int64("game_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	s.logger.Info("devgw_created", zap.Int64("game_id", id))
	writeJSON(w, http.StatusCreated, map[string]int64{"game_id": id})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	exists, err := s.store.Exists(r.Context(), id)
	if err != nil {
		s.logger.Error("devgw_join_lookup", zap.Int64("game_id", id), zap.Error(err))
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	// clients never send data; this keeps control frames (ping/close) flowing
	ctx := conn.CloseRead(r.Context())

	log := s.logger.With(zap.Int64("game_id", id), zap.String("client_id", r.Header.Get(gamewire.HeaderClientID)))
	log.Info("devgw_join")
	if err := s.stream(ctx, conn, id); err != nil && ctx.Err() == nil {
		log.Warn("devgw_stream_end", zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "stream failed")
	}
}

// stream replays every stored event and then follows the stream until ctx ends.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, id int64) error {
	last := "0"
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.store.ReadEvents(ctx, id, last, s.poll)
		if err != nil {
			return err
		}
		for _, e := range entries {
			raw, err := gamewire.Encode(e.Event)
			if err != nil {
				return err
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, raw)
			cancel()
			if err != nil {
				return err
			}
			last = e.ID
		}
	}
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var at gamewire.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil || !at.Valid() {
		writeError(w, http.StatusBadRequest, "invalid coordinate")
		return
	}
	game, status, err := s.load(r.Context(), id)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	dests, err := destinations(game, at)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gamewire.SuggestResponse(dests))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var m gamewire.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || !m.Valid() {
		writeError(w, http.StatusBadRequest, "invalid move")
		return
	}
	moves, err := s.moves(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	game, err := reconstruct(moves)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	uci, events, err := play(game, m)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Commit(r.Context(), id, len(moves), uci, events); err != nil {
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("devgw_commit", zap.Int64("game_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	s.logger.Info("devgw_move", zap.Int64("game_id", id), zap.String("uci", uci), zap.Int("events", len(events)))
	writeJSON(w, http.StatusOK, map[string]string{"uci": uci})
}

var errUnknownGame = errors.New("game not found")

func (s *Server) moves(ctx context.Context, id int64) ([]string, error) {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errUnknownGame
	}
	return s.store.Moves(ctx, id)
}

func (s *Server) load(ctx context.Context, id int64) (*nchess.Game, int, error) {
	moves, err := s.moves(ctx, id)
	if err != nil {
		return nil, statusFor(err), err
	}
	game, err := reconstruct(moves)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return game, http.StatusOK, nil
}

func statusFor(err error) int {
	if errors.Is(err, errUnknownGame) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, gamewire.ErrorResponse{Error: msg})
}
