package main

import (
	"context"
	"fmt"
	"log"
	"time"

	appcfg "github.com/park285/Cheese-chess-client/internal/config"
	"github.com/park285/Cheese-chess-client/internal/gateway"
	"github.com/park285/Cheese-chess-client/internal/transport"
	"github.com/park285/Cheese-chess-client/pkg/board"
	"github.com/park285/Cheese-chess-client/pkg/gamewire"
)

// gatewaycheck probes both gateway channels for GAME_ID and prints what it sees.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.GameID <= 0 {
		log.Fatal("GAME_ID is required")
	}

	headers := func() map[string]string {
		return map[string]string{gamewire.HeaderClientID: cfg.ClientID}
	}

	gw := gateway.NewClient(cfg.GatewayHTTPEndpoint, cfg.GameID,
		gateway.WithHeaderProvider(headers),
		gateway.WithTimeout(cfg.RequestTimeout),
	)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	e2 := board.Coordinate{X: 4, Y: 6}
	dests, err := gw.Suggest(ctx, e2)
	cancel()
	if err != nil {
		log.Printf("/suggest error: %v", err)
	} else {
		log.Printf("/suggest ok: %s -> %v", e2, dests)
	}

	ws := transport.NewWebSocket(cfg.GatewayWSEndpoint,
		transport.WithHeaderProvider(headers),
		transport.WithHandshakeTimeout(cfg.ConnectTimeout),
	)
	ws.OnStateChange(func(state transport.State) {
		log.Printf("WS state: %s", state)
	})
	defer ws.Close(context.Background())

	result := make(chan error, 1)
	ws.Connect(context.Background(), cfg.GameID,
		func() { result <- nil },
		func(err error) { result <- err },
	)
	if err := <-result; err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	defer t.Stop()
	events := ws.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				log.Println("WS feed closed")
				return
			}
			line := string(ev.Event)
			if ev.Move != nil {
				line += " " + ev.Move.String()
			}
			if w, ok := ev.Winner(); ok {
				line += " winner=" + string(w)
			}
			fmt.Println("WS event:", line)
		case <-t.C:
			return
		}
	}
}
