package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket owns at most one live connection to {baseURL}/game/{id}/join.
type WebSocket struct {
	baseURL string

	conn   *websocket.Conn
	events chan gamewire.Event
	state  State
	stateM sync.RWMutex

	stateCbs []stateCallbackEntry
	nextCbID int
	cbM      sync.RWMutex

	pingInterval     time.Duration
	pingTimeout      time.Duration
	handshakeTimeout time.Duration
	eventBuffer      int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
	logger         *zap.Logger
}

type Option func(*WebSocket)

func WithHeaderProvider(h HeaderProvider) Option {
	return func(ws *WebSocket) { ws.headerProvider = h }
}

func WithPingInterval(d time.Duration) Option {
	return func(ws *WebSocket) { ws.pingInterval = d }
}

func WithPingTimeout(d time.Duration) Option {
	return func(ws *WebSocket) { ws.pingTimeout = d }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(ws *WebSocket) { ws.handshakeTimeout = d }
}

func WithEventBuffer(n int) Option {
	return func(ws *WebSocket) { ws.eventBuffer = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(ws *WebSocket) { ws.logger = l }
}

func NewWebSocket(baseURL string, opts ...Option) *WebSocket {
	ws := &WebSocket{
		baseURL:          strings.TrimRight(baseURL, "/"),
		state:            StateIdle,
		pingInterval:     30 * time.Second,
		pingTimeout:      3 * time.Second,
		handshakeTimeout: 10 * time.Second,
		eventBuffer:      64,
		stopCh:           make(chan struct{}),
		stateCbs:         make([]stateCallbackEntry, 0),
	}
	for _, opt := range opts {
		opt(ws)
	}
	if ws.logger == nil {
		ws.logger = zap.NewNop()
	}
	if ws.pingTimeout <= 0 {
		ws.pingTimeout = 3 * time.Second
	}
	if ws.eventBuffer < 1 {
		ws.eventBuffer = 1
	}
	ws.rootCtx, ws.rootCancel = context.WithCancel(context.Background())
	return ws
}

// Connect dials the game endpoint in the background and reports the outcome through
// exactly one of the callbacks. Callbacks never run on the caller's goroutine.
func (ws *WebSocket) Connect(ctx context.Context, gameID int64, onReady func(), onReject func(error)) {
	var once sync.Once
	ready := func() {
		once.Do(func() {
			if onReady != nil {
				onReady()
			}
		})
	}
	reject := func(err error) {
		once.Do(func() {
			if onReject != nil {
				onReject(err)
			}
		})
	}

	ws.stateM.Lock()
	if ws.isStopping() {
		ws.stateM.Unlock()
		go reject(ErrClosed)
		return
	}
	if ws.state == StateConnecting || ws.state == StateOpen {
		ws.stateM.Unlock()
		go reject(ErrAlreadyConnected)
		return
	}
	ws.state = StateConnecting
	ws.wg.Add(1)
	ws.stateM.Unlock()
	ws.notifyState(StateConnecting)

	go ws.dial(ctx, gameID, ready, reject)
}

func (ws *WebSocket) dial(ctx context.Context, gameID int64, ready func(), reject func(error)) {
	defer ws.wg.Done()

	dialCtx, cancel := context.WithTimeout(ctx, ws.handshakeTimeout)
	defer cancel()
	stop := context.AfterFunc(ws.rootCtx, cancel)
	defer stop()

	url := fmt.Sprintf("%s/game/%d/join", ws.baseURL, gameID)
	conn, resp, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			err = fmt.Errorf("%w: status=%d", ErrHandshakeRejected, resp.StatusCode)
		}
		ws.setState(StateClosed)
		ws.logger.Warn("transport_connect_failed", zap.Int64("game_id", gameID), zap.String("url", url), zap.Error(err))
		reject(err)
		return
	}

	events := make(chan gamewire.Event, ws.eventBuffer)
	ws.stateM.Lock()
	if ws.isStopping() {
		ws.stateM.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		ws.setState(StateClosed)
		reject(ErrClosed)
		return
	}
	ws.conn = conn
	ws.events = events
	ws.state = StateOpen
	ws.stateM.Unlock()
	ws.notifyState(StateOpen)
	ws.logger.Info("transport_connected", zap.Int64("game_id", gameID))

	connCtx, connCancel := context.WithCancel(ws.rootCtx)
	ws.wg.Add(2)
	go ws.listen(connCtx, connCancel, conn, events, gameID)
	go ws.pingLoop(connCtx, conn)
	ready()
}

func (ws *WebSocket) listen(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, events chan<- gamewire.Event, gameID int64) {
	defer ws.wg.Done()
	defer close(events)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			ws.logger.Info("transport_closed",
				zap.Int64("game_id", gameID),
				zap.Int("close_status", int(websocket.CloseStatus(err))),
				zap.Error(err),
			)
			ws.markClosed(conn)
			return
		}
		ev, perr := gamewire.Decode(data)
		if perr != nil {
			ws.logger.Warn("transport_drop_malformed", zap.Int64("game_id", gameID), zap.Int("bytes", len(data)), zap.Error(perr))
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			ws.markClosed(conn)
			return
		}
	}
}

func (ws *WebSocket) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer ws.wg.Done()
	if ws.pingInterval <= 0 {
		return
	}
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	consecutivePingFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, ws.pingTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				consecutivePingFailures = 0
				continue
			}
			consecutivePingFailures++
			if consecutivePingFailures >= 2 {
				ws.logger.Warn("transport_ping_failure", zap.Error(err))
				// no close handshake with a silent peer; the read loop ends the feed
				_ = conn.CloseNow()
				return
			}
		}
	}
}

func (ws *WebSocket) markClosed(conn *websocket.Conn) {
	ws.stateM.Lock()
	if ws.conn == conn {
		ws.conn = nil
	}
	ws.state = StateClosed
	ws.stateM.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "close")
	ws.notifyState(StateClosed)
}

func (ws *WebSocket) IsConnected() bool {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state == StateOpen
}

func (ws *WebSocket) State() State {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

// Events returns the feed of the latest successful connection, or nil before the first one.
func (ws *WebSocket) Events() <-chan gamewire.Event {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	if ws.events == nil {
		return nil
	}
	return ws.events
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	id := ws.nextCbID
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: id, callback: cb})
	return id
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) setState(state State) {
	ws.stateM.Lock()
	ws.state = state
	ws.stateM.Unlock()
	ws.notifyState(state)
}

func (ws *WebSocket) notifyState(state State) {
	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close tears the connection down for good; later Connect calls are rejected with ErrClosed.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stateM.Lock()
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	conn := ws.conn
	ws.stateM.Unlock()

	ws.rootCancel()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProvider == nil {
		return hdr
	}
	for k, v := range ws.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

var _ Client = (*WebSocket)(nil)
