package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-client/internal/adapter/chesspresenter"
	appcfg "github.com/park285/Cheese-chess-client/internal/config"
	"github.com/park285/Cheese-chess-client/internal/gateway"
	"github.com/park285/Cheese-chess-client/internal/msgcat"
	"github.com/park285/Cheese-chess-client/internal/obslog"
	"github.com/park285/Cheese-chess-client/internal/session"
	"github.com/park285/Cheese-chess-client/internal/transport"
	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

// usage: chess-client [game_id] [white|black]; arguments override GAME_ID / LOCAL_SIDE.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv("chess-client"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	if len(os.Args) > 1 {
		n, err := strconv.ParseInt(os.Args[1], 10, 64)
		if err != nil {
			log.Fatalf("invalid game id %q", os.Args[1])
		}
		cfg.GameID = n
	}
	if len(os.Args) > 2 {
		cfg.LocalSide = os.Args[2]
	}
	side, _ := board.ParseColor(cfg.LocalSide)

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages init error: %v", err)
	}

	headers := func() map[string]string {
		return map[string]string{gamewire.HeaderClientID: cfg.ClientID}
	}

	ws := transport.NewWebSocket(cfg.GatewayWSEndpoint,
		transport.WithHeaderProvider(headers),
		transport.WithPingInterval(cfg.PingInterval),
		transport.WithHandshakeTimeout(cfg.ConnectTimeout),
		transport.WithLogger(logger),
	)
	ws.OnStateChange(func(state transport.State) {
		logger.Debug("ws_state", zap.String("state", string(state)))
	})
	gw := gateway.NewClient(cfg.GatewayHTTPEndpoint, cfg.GameID,
		gateway.WithHeaderProvider(headers),
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess, err := session.New(ctx, session.Config{
		GameID:          cfg.GameID,
		LocalSide:       side,
		ConnectTimeout:  cfg.ConnectTimeout,
		RequestTimeout:  cfg.RequestTimeout,
		SubmitReconcile: cfg.SubmitReconcile,
	}, ws, gw, session.WithLogger(logger), session.WithNotices(catalog))
	if err != nil {
		log.Fatalf("session setup error: %v (set GAME_ID and LOCAL_SIDE)", err)
	}
	defer sess.Close()

	presenter := chesspresenter.NewPresenter(os.Stdout, chesspresenter.NewFormatter())
	snaps, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	sess.Start()

	quit := make(chan struct{})
	go readGestures(sess, presenter, quit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := presenter.Show(snap); err != nil {
				logger.Warn("render_failed", zap.Error(err))
			}
			if snap.Phase == session.PhaseTerminated {
				return
			}
		case <-quit:
			return
		case <-sigCh:
			return
		}
	}
}

// readGestures turns stdin lines ("e2" or "4,6") into clicks until EOF or "quit".
func readGestures(sess *session.Session, presenter *chesspresenter.Presenter, quit chan<- struct{}) {
	defer close(quit)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return
		case "help", "?":
			_ = presenter.Line("Enter a square (e2 or 4,6) to select, the same square to cancel, a starred square to move. 'quit' exits.")
			continue
		}
		c, err := board.ParseCoordinate(line)
		if err != nil {
			_ = presenter.Line(fmt.Sprintf("not a square: %q", line))
			continue
		}
		sess.Click(c)
	}
}
