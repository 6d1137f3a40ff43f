package relay

import (
	"net"
	"strconv"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/faforever/ice-adapter/internal/keepalive"
	"github.com/faforever/ice-adapter/internal/signalmsg"
)

// registerICECallbacks wires every pion callback the relay cares about onto
// the relay's executor. None of these handlers touch Relay state directly;
// they post a closure and let the executor serialize it with everything
// else.
func (r *Relay) registerICECallbacks() {
	r.pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		r.exec.Go(func() { r.handleICEStateChange(state) })
	})

	r.pc.OnICEGatheringStateChange(func(state webrtc.ICEGatheringState) {
		r.exec.Go(func() { r.handleGatheringStateChange(state) })
	})

	r.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		r.exec.Go(func() {
			if r.closing {
				return
			}
			if r.cb.OnCandidate != nil {
				r.cb.OnCandidate(signalmsg.NewCandidate(init))
			}
		})
	})

	r.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		r.exec.Go(func() {
			if r.closing || r.dc != nil {
				return
			}
			r.dc = dc
			r.registerDataChannelCallbacks(dc)
		})
	})
}

// handleICEStateChange implements the ICE state transition handler: update
// the stored state string; if not closing, update the connected invariant,
// request a fresh stats report, and invoke the state callback; if the role
// is offerer and the new state is failed/disconnected/closed, immediately
// restart by creating a new offer.
func (r *Relay) handleICEStateChange(state webrtc.ICEConnectionState) {
	r.iceState = state.String()
	if r.closing {
		return
	}

	wasConnected := r.connected
	r.connected = state == webrtc.ICEConnectionStateConnected || state == webrtc.ICEConnectionStateCompleted
	if r.connected && !wasConnected {
		r.connectDuration = time.Since(r.connectStart)
		r.monitor.ResetOnConnect()
	}

	r.requestStats()

	if r.connected != wasConnected && r.cb.OnConnected != nil {
		r.cb.OnConnected(r.connected)
	}
	if r.cb.OnState != nil {
		r.cb.OnState(r.iceState)
	}

	switch state {
	case webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateClosed:
		if r.opts.Role == RoleOfferer {
			r.createOffer()
		}
	}
}

func (r *Relay) handleGatheringStateChange(state webrtc.ICEGatheringState) {
	if r.closing {
		return
	}
	r.gatheringState = state.String()
}

// requestStats pulls the current stats report and updates the selected
// local/remote candidate address and type. Local and remote sides are
// updated independently and may be stale relative to each other between
// reports.
func (r *Relay) requestStats() {
	if r.pc == nil {
		return
	}
	report := r.pc.GetStats()

	var pair webrtc.ICECandidatePairStats
	havePair := false
	for _, stat := range report {
		if p, ok := stat.(webrtc.ICECandidatePairStats); ok && p.Nominated {
			pair = p
			havePair = true
			break
		}
	}
	if !havePair {
		return
	}

	if local, ok := report[pair.LocalCandidateID].(webrtc.ICECandidateStats); ok {
		r.localCandidateAddr = candidateAddr(local)
		r.localCandidateType = local.CandidateType.String()
	}
	if remote, ok := report[pair.RemoteCandidateID].(webrtc.ICECandidateStats); ok {
		r.remoteCandidateAddr = candidateAddr(remote)
		r.remoteCandidateType = remote.CandidateType.String()
	}
}

func candidateAddr(c webrtc.ICECandidateStats) string {
	if c.IP == "" {
		return ""
	}
	return net.JoinHostPort(c.IP, strconv.Itoa(int(c.Port)))
}

// handleDataChannelMessage implements the inbound datagram pump: PING is
// consumed and answered with PONG (answerer only); PONG is consumed and
// recorded (offerer only); everything else is forwarded to the game UDP
// socket unchanged.
func (r *Relay) handleDataChannelMessage(data []byte) {
	if r.closing {
		return
	}

	if r.opts.Role == RoleAnswerer && keepalive.IsPing(data) {
		r.replyPong()
		return
	}
	if r.opts.Role == RoleOfferer && keepalive.IsPong(data) {
		r.monitor.RecordPong(time.Now())
		return
	}

	r.sendToGame(data)
}

func (r *Relay) replyPong() {
	if r.dc == nil || r.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	if err := r.dc.Send(keepalive.Pong[:]); err != nil {
		r.log.Debug("failed to send keepalive pong", "err", err)
	}
}

func (r *Relay) sendPing() {
	if r.dc == nil || r.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	if err := r.dc.Send(keepalive.Ping[:]); err != nil {
		r.log.Debug("failed to send keepalive ping", "err", err)
	}
	r.monitor.RecordPingSent(time.Now())
}
