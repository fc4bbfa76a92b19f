package devgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

const ttlGame = 24 * time.Hour

var (
	ErrGameExists = errors.New("game already exists")
	ErrConflict   = errors.New("concurrent move")
)

// StreamEvent is one entry of a game's event stream.
type StreamEvent struct {
	ID    string
	Event gamewire.Event
}

// Store keeps each game as a UCI move list plus an append-only event stream.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func keyMeta(id int64) string   { return "game:" + strconv.FormatInt(id, 10) }
func keyMoves(id int64) string  { return keyMeta(id) + ":moves" }
func keyEvents(id int64) string { return keyMeta(id) + ":events" }

func (s *Store) Create(ctx context.Context, id int64) error {
	ok, err := s.rdb.SetNX(ctx, keyMeta(id), time.Now().Unix(), ttlGame).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameExists
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyMeta(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Moves(ctx context.Context, id int64) ([]string, error) {
	return s.rdb.LRange(ctx, keyMoves(id), 0, -1).Result()
}

// Commit appends uci and its events atomically, provided no other move landed
// since the caller read played moves.
func (s *Store) Commit(ctx context.Context, id int64, played int, uci string, events []gamewire.Event) error {
	payloads := make([]string, 0, len(events))
	for _, ev := range events {
		raw, err := gamewire.Encode(ev)
		if err != nil {
			return err
		}
		payloads = append(payloads, string(raw))
	}
	movesK, eventsK := keyMoves(id), keyEvents(id)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.LLen(ctx, movesK).Result()
		if err != nil {
			return err
		}
		if int(n) != played {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, movesK, uci)
			for _, p := range payloads {
				pipe.XAdd(ctx, &redis.XAddArgs{Stream: eventsK, Values: map[string]any{"data": p}})
			}
			pipe.Expire(ctx, movesK, ttlGame)
			pipe.Expire(ctx, eventsK, ttlGame)
			pipe.Expire(ctx, keyMeta(id), ttlGame)
			return nil
		})
		return err
	}, movesK)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

// ReadEvents returns entries after the given stream id ("0" for the beginning),
// waiting up to block for new ones. A timeout yields no entries and no error.
func (s *Store) ReadEvents(ctx context.Context, id int64, after string, block time.Duration) ([]StreamEvent, error) {
	res, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{keyEvents(id), after},
		Count:   64,
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []StreamEvent
	for _, stream := range res {
		for _, msg := range stream.Messages {
			raw, _ := msg.Values["data"].(string)
			var ev gamewire.Event
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
			}
			out = append(out, StreamEvent{ID: msg.ID, Event: ev})
		}
	}
	return out, nil
}

// NewRedisClient parses a redis:// or rediss:// URL and pings the server.
func NewRedisClient(ctx context.Context, raw string) (*redis.Client, error) {
	opts, err := parseRedisURL(raw)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
