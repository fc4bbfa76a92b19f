package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client proxies suggest/submit for one game. It keeps no game state.
type Client struct {
	baseURL string
	gameID  int64
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDial replaces the TCP dialer (in-memory listeners in tests).
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, gameID int64, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		gameID:         gameID,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 4},
		defaultTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Suggest returns the legal destinations of the piece on at. An empty result is not an error.
func (c *Client) Suggest(ctx context.Context, at board.Coordinate) ([]board.Coordinate, error) {
	req := gamewire.SuggestRequest(at)
	var resp gamewire.SuggestResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, c.path("suggest"), req, &resp); err != nil {
		return nil, err
	}
	out := make([]board.Coordinate, 0, len(resp))
	for _, d := range resp {
		if !d.Valid() {
			c.logger.Warn("gateway_suggest_drop_invalid", zap.Int64("game_id", c.gameID), zap.Int("x", d.X), zap.Int("y", d.Y))
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Submit asks the gateway to apply m. Confirmation arrives later on the event feed;
// the response body is ignored.
func (c *Client) Submit(ctx context.Context, m board.Move) error {
	return c.doJSON(ctx, fasthttp.MethodPost, c.path("move"), gamewire.MoveRequest(m), nil)
}

func (c *Client) path(op string) string {
	return fmt.Sprintf("/game/%d/%s", c.gameID, op)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		c.logger.Warn("gateway_unreachable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		body := truncate(string(resp.Body()), 512)
		c.logger.Info("gateway_rejected", zap.String("path", path), zap.Int("status", status), zap.String("body", body))
		return &StatusError{Status: status, Body: body}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
