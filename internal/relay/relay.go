package relay

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/faforever/ice-adapter/internal/executor"
	"github.com/faforever/ice-adapter/internal/keepalive"
	"github.com/faforever/ice-adapter/internal/signalmsg"
)

// Role is a relay's position in the SDP offer/answer model. The offerer is
// the sole initiator of offers and ICE restarts; the answerer only ever
// responds.
type Role int

const (
	RoleAnswerer Role = iota
	RoleOfferer
)

func (r Role) String() string {
	if r == RoleOfferer {
		return "offerer"
	}
	return "answerer"
}

// Options are the immutable construction inputs for a Relay.
type Options struct {
	RemotePlayerID    int
	RemotePlayerLogin string
	GameUDPPort       uint16
	Role              Role
	ICEServers        []webrtc.ICEServer

	// CheckInterval, PongTimeout and MissedPingsToRestart tune the liveness
	// monitor; see internal/keepalive. Only meaningful for the offerer.
	CheckInterval        time.Duration
	PongTimeout          time.Duration
	MissedPingsToRestart int
}

// Callbacks are invoked from the Relay's executor as state changes. All are
// optional.
type Callbacks struct {
	// OnState fires on every ICE connection state transition.
	OnState func(state string)
	// OnConnected fires only on a false<->true flip of the connected flag.
	OnConnected func(connected bool)
	// OnCandidate fires once per gathered local ICE candidate.
	OnCandidate func(msg signalmsg.Message)
	// OnSDP fires once per created local offer or answer.
	OnSDP func(msg signalmsg.Message)
	// OnDataChannelOpen fires when the data channel transitions to open.
	OnDataChannelOpen func()
}

// Relay is the per-remote-peer session: one ICE/DTLS/SCTP connection over a
// single unreliable, unordered data channel, bridged to a local UDP socket
// the game process speaks to. All exported methods are safe to call from any
// goroutine; the work they trigger runs on the Relay's executor.
type Relay struct {
	opts Options
	cb   Callbacks
	log  *slog.Logger
	exec executor.Executor

	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	udpConn  *net.UDPConn
	gameAddr *net.UDPAddr

	monitor    *keepalive.Monitor
	checkTimer executor.Timer

	connectStart    time.Time
	connectDuration time.Duration

	iceState       string
	gatheringState string
	connected      bool
	closing        bool

	localCandidateAddr, localCandidateType   string
	remoteCandidateAddr, remoteCandidateType string

	closeOnce sync.Once
	readDone  chan struct{}
}

// New binds the game UDP socket, creates the underlying PeerConnection, and
// - for the offerer - issues the initial offer. api is typically built with
// webrtcpeer.NewAPI.
func New(api *webrtc.API, exec executor.Executor, logger *slog.Logger, opts Options, cb Callbacks) (*Relay, error) {
	if exec == nil {
		return nil, ErrExecutorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 10 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 15 * time.Second
	}
	if opts.MissedPingsToRestart <= 0 {
		opts.MissedPingsToRestart = 2
	}

	// The relay's own socket is bound to an OS-assigned ephemeral port,
	// exposed via LocalUDPPort; opts.GameUDPPort is a separate, fixed
	// destination the game process listens on, used only as the target of
	// outbound (peer -> game) datagrams.
	bindAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
	udpConn, err := net.ListenUDP("udp4", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("relay: bind game udp socket: %w", err)
	}
	gameAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(opts.GameUDPPort)}

	r := &Relay{
		opts: opts,
		cb:   cb,
		log: logger.With(
			"remote_player_id", opts.RemotePlayerID,
			"remote_player_login", opts.RemotePlayerLogin,
			"role", opts.Role.String(),
		),
		exec:           exec,
		udpConn:        udpConn,
		gameAddr:       gameAddr,
		monitor:        keepalive.NewMonitor(opts.PongTimeout, opts.MissedPingsToRestart),
		iceState:       webrtc.ICEConnectionStateNew.String(),
		gatheringState: webrtc.ICEGatheringStateNew.String(),
		connectStart:   time.Now(),
		readDone:       make(chan struct{}),
	}
	r.log.Info("bound game udp socket", "local_addr", udpConn.LocalAddr(), "game_addr", gameAddr)

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: opts.ICEServers})
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("relay: create peer connection: %w", err)
	}
	r.pc = pc
	r.registerICECallbacks()

	go r.readGameUDPLoop()

	if opts.Role == RoleOfferer {
		r.exec.Go(r.createOffer)
	}

	return r, nil
}

// AddICEMessage parses and ingests one signaling message from the peer.
// Parse failures and add-candidate failures are logged and skipped; they
// never tear down the session.
func (r *Relay) AddICEMessage(data []byte) {
	r.exec.Go(func() {
		msg, err := signalmsg.Parse(data)
		if err != nil {
			r.log.Warn("failed to parse signaling message", "err", err)
			return
		}
		r.handleICEMessage(msg)
	})
}

func (r *Relay) handleICEMessage(msg signalmsg.Message) {
	if r.pc == nil {
		r.log.Error("received signaling message before peer connection ready", "type", msg.Type)
		return
	}
	switch msg.Type {
	case signalmsg.TypeOffer:
		desc, err := msg.SDP.ToPion()
		if err != nil {
			r.log.Warn("failed to parse remote offer", "err", err)
			return
		}
		if err := r.pc.SetRemoteDescription(desc); err != nil {
			r.log.Warn("failed to set remote offer", "err", err)
			return
		}
		if r.opts.Role == RoleAnswerer {
			r.createAnswer()
		}
	case signalmsg.TypeAnswer:
		desc, err := msg.SDP.ToPion()
		if err != nil {
			r.log.Warn("failed to parse remote answer", "err", err)
			return
		}
		if err := r.pc.SetRemoteDescription(desc); err != nil {
			r.log.Warn("failed to set remote answer", "err", err)
		}
	case signalmsg.TypeCandidate:
		if err := r.pc.AddICECandidate(msg.Candidate.ToPion()); err != nil {
			r.log.Warn("failed to add ice candidate", "err", err)
		}
	}
}

// Close tears the session down: stops the liveness timer, unregisters the
// data channel's handlers and closes it, closes the peer connection, then
// releases the UDP socket. The executor is left running; it belongs to the
// caller. Safe to call more than once; only the first call has effect.
func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		done := make(chan struct{})
		r.exec.Go(func() {
			r.closing = true
			if r.checkTimer != nil {
				r.checkTimer.Stop()
			}
			close(done)
		})
		<-done

		if r.dc != nil {
			// Unregister the data channel's handlers first so no late
			// open/close/message event is posted for this relay.
			r.dc.OnOpen(func() {})
			r.dc.OnClose(func() {})
			r.dc.OnMessage(func(webrtc.DataChannelMessage) {})
			_ = r.dc.Close()
		}
		if r.pc != nil {
			err = r.pc.Close()
		}

		_ = r.udpConn.Close()
		<-r.readDone
	})
	return err
}
