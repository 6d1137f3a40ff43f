package relay

import "net"

// Status is a point-in-time snapshot of a Relay's observable state. JSON
// tags let an embedder forward it verbatim over its own signaling or
// monitoring channel, mirroring the original adapter's JSON status blob.
type Status struct {
	RemotePlayerID    int    `json:"remote_player_id"`
	RemotePlayerLogin string `json:"remote_player_login"`
	GameUDPPort       uint16 `json:"game_udp_port"`
	Offerer           bool   `json:"offerer"`

	ICEState         string `json:"ice_state"`
	GatheringState   string `json:"gathering_state"`
	DataChannelState string `json:"data_channel_state"`
	Connected        bool   `json:"connected"`

	LocalCandidateAddr  string `json:"local_candidate_addr,omitempty"`
	RemoteCandidateAddr string `json:"remote_candidate_addr,omitempty"`
	LocalCandidateType  string `json:"local_candidate_type,omitempty"`
	RemoteCandidateType string `json:"remote_candidate_type,omitempty"`

	// TimeToConnectedSeconds is 0 until the first connected transition.
	TimeToConnectedSeconds float64 `json:"time_to_connected_seconds"`
}

// Status returns a consistent snapshot of the relay's current state. It
// posts a closure onto the relay's executor and blocks for the result,
// giving callers a synchronous-looking read across goroutines without any
// additional locking.
func (r *Relay) Status() Status {
	result := make(chan Status, 1)
	r.exec.Go(func() {
		result <- r.snapshotStatus()
	})
	return <-result
}

// IsConnected is a narrow convenience wrapper around Status for callers that
// only need the connected flag.
func (r *Relay) IsConnected() bool {
	return r.Status().Connected
}

// LocalUDPPort returns the OS-assigned port of the relay's own UDP socket
// (distinct from GameUDPPort, the fixed destination it forwards inbound
// peer traffic to). Safe to call at any time after New returns; the socket
// is bound before New returns successfully, so this never blocks on the
// executor.
func (r *Relay) LocalUDPPort() uint16 {
	return uint16(r.udpConn.LocalAddr().(*net.UDPAddr).Port)
}

func (r *Relay) snapshotStatus() Status {
	dcState := "none"
	if r.dc != nil {
		dcState = r.dc.ReadyState().String()
	}

	var ttc float64
	if r.connectDuration > 0 {
		ttc = r.connectDuration.Seconds()
	}

	return Status{
		RemotePlayerID:          r.opts.RemotePlayerID,
		RemotePlayerLogin:       r.opts.RemotePlayerLogin,
		GameUDPPort:             r.opts.GameUDPPort,
		Offerer:                 r.opts.Role == RoleOfferer,
		ICEState:                r.iceState,
		GatheringState:          r.gatheringState,
		DataChannelState:        dcState,
		Connected:               r.connected,
		LocalCandidateAddr:      r.localCandidateAddr,
		RemoteCandidateAddr:     r.remoteCandidateAddr,
		LocalCandidateType:      r.localCandidateType,
		RemoteCandidateType:     r.remoteCandidateType,
		TimeToConnectedSeconds:  ttc,
	}
}
