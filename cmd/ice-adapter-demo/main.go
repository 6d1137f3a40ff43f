// Command ice-adapter-demo runs one relay end to end against a peer process,
// using a bare WebSocket connection to carry signaling messages instead of
// the real FAF lobby server. It exists to exercise internal/relay end to
// end outside of a test harness; it is not the production ice-adapter
// entrypoint (there is none in this module - see SPEC_FULL.md).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/faforever/ice-adapter/internal/executor"
	"github.com/faforever/ice-adapter/internal/relay"
	"github.com/faforever/ice-adapter/internal/relayconfig"
	"github.com/faforever/ice-adapter/internal/signalmsg"
	"github.com/faforever/ice-adapter/internal/webrtcpeer"
	"github.com/faforever/ice-adapter/internal/wstransport"
)

func main() {
	var (
		mode        string
		listenAddr  string
		peerURL     string
		gameUDPPort uint
		remoteID    int
		remoteLogin string
	)
	fs := flag.NewFlagSet("ice-adapter-demo", flag.ContinueOnError)
	fs.StringVar(&mode, "mode", "", "offer or answer")
	fs.StringVar(&listenAddr, "listen", "127.0.0.1:8080", "answer mode: address to serve the signaling websocket on")
	fs.StringVar(&peerURL, "peer", "ws://127.0.0.1:8080/ws", "offer mode: signaling websocket URL to dial")
	fs.UintVar(&gameUDPPort, "game-udp-port", 0, "fixed local UDP port the game process listens on (127.0.0.1:<port>); the relay's own UDP socket, which the game sends to, is always bound to an OS-assigned port")
	fs.IntVar(&remoteID, "remote-player-id", 0, "remote player id, for logging and Status only")
	fs.StringVar(&remoteLogin, "remote-player-login", "", "remote player login, for logging and Status only")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := relayconfig.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := relayconfig.NewLogger(cfg)
	slog.SetDefault(logger)

	api, err := webrtcpeer.NewAPI(webrtcpeer.NetworkOptions{
		PortMin: cfg.WebRTCUDPPortMin,
		PortMax: cfg.WebRTCUDPPortMax,
	})
	if err != nil {
		logger.Error("failed to configure webrtc", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conn *wstransport.Conn
	switch mode {
	case "offer":
		conn, err = dialSignaling(ctx, peerURL)
	case "answer":
		conn, err = acceptSignaling(ctx, listenAddr, logger)
	default:
		fmt.Fprintln(os.Stderr, "-mode must be offer or answer")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("failed to establish signaling connection", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	role := relay.RoleAnswerer
	if mode == "offer" {
		role = relay.RoleOfferer
	}

	r, err := relay.New(api, executor.NewSerial(), logger, relay.Options{
		RemotePlayerID:       remoteID,
		RemotePlayerLogin:    remoteLogin,
		GameUDPPort:          uint16(gameUDPPort),
		Role:                 role,
		CheckInterval:        cfg.CheckInterval,
		PongTimeout:          cfg.PongTimeout,
		MissedPingsToRestart: cfg.MissedPingsToRestart,
	}, relay.Callbacks{
		OnState: func(state string) { logger.Info("ice state changed", "state", state) },
		OnConnected: func(connected bool) {
			logger.Info("connected flag changed", "connected", connected)
		},
		OnSDP: func(msg signalmsg.Message) {
			sendSignalingMessage(conn, logger, msg)
		},
		OnCandidate: func(msg signalmsg.Message) {
			sendSignalingMessage(conn, logger, msg)
		},
		OnDataChannelOpen: func() { logger.Info("data channel open") },
	})
	if err != nil {
		logger.Error("failed to create relay", "err", err)
		os.Exit(1)
	}
	defer r.Close()

	logger.Info("relay started", "role", role.String(), "game_udp_port", r.Status().GameUDPPort)

	go pumpSignalingInbound(conn, r, logger)

	<-ctx.Done()
	logger.Info("shutdown signal received")
}

func sendSignalingMessage(conn *wstransport.Conn, logger *slog.Logger, msg signalmsg.Message) {
	data, err := msg.Marshal()
	if err != nil {
		logger.Error("failed to marshal outbound signaling message", "err", err)
		return
	}
	if err := conn.WriteMessage(data); err != nil {
		logger.Warn("failed to send signaling message", "err", err)
	}
}

// pumpSignalingInbound feeds every inbound signaling frame to the relay
// until the connection closes.
func pumpSignalingInbound(conn *wstransport.Conn, r *relay.Relay, logger *slog.Logger) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("signaling connection closed", "err", err)
			return
		}
		r.AddICEMessage(data)
	}
}

func dialSignaling(ctx context.Context, url string) (*wstransport.Conn, error) {
	return wstransport.Dial(ctx, url)
}

// acceptSignaling serves exactly one inbound signaling connection on
// listenAddr and returns it, shutting the listener down once accepted.
func acceptSignaling(ctx context.Context, listenAddr string, logger *slog.Logger) (*wstransport.Conn, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", listenAddr, err)
	}

	upgrader := wstransport.NewUpgrader()
	connCh := make(chan *wstransport.Conn, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Accept(w, r)
		if err != nil {
			logger.Error("failed to upgrade signaling connection", "err", err)
			return
		}
		select {
		case connCh <- conn:
		default:
			// A second peer tried to connect; this demo only ever serves one.
			_ = conn.Close()
		}
	})

	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	logger.Info("waiting for signaling connection", "listen_addr", listenAddr)

	select {
	case conn := <-connCh:
		go func() { _ = srv.Shutdown(context.Background()) }()
		return conn, nil
	case <-ctx.Done():
		_ = srv.Close()
		return nil, ctx.Err()
	}
}
