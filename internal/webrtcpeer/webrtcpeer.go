// Package webrtcpeer constructs the pion/webrtc API used to create per-peer
// PeerConnections.
//
// The ICE/DTLS/SCTP stack itself is a capability the relay binds to, not an
// interface it abstracts over: callers pass the *webrtc.API returned here
// straight into relay.New.
package webrtcpeer

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// NetworkOptions restricts the local UDP ports pion uses for ICE candidate
// gathering. Zero values leave pion's defaults (an ephemeral port per
// candidate) in place.
type NetworkOptions struct {
	PortMin uint16
	PortMax uint16
}

// NewAPI builds the pion/webrtc API used to construct PeerConnections.
//
// Every log line pion emits is routed through the slog logger factory so it
// lands in the same structured log stream as the rest of the relay.
func NewAPI(net NetworkOptions) (*webrtc.API, error) {
	se := webrtc.SettingEngine{}
	se.LoggerFactory = newSlogLoggerFactory()

	if net.PortMin != 0 || net.PortMax != 0 {
		if err := se.SetEphemeralUDPPortRange(net.PortMin, net.PortMax); err != nil {
			return nil, fmt.Errorf("set ephemeral udp port range: %w", err)
		}
	}

	m := &webrtc.MediaEngine{}
	// The relay never sends or receives media; registering no codecs makes an
	// accidental audio/video negotiation fail loudly instead of silently.
	i := &interceptor.Registry{}

	api := webrtc.NewAPI(
		webrtc.WithSettingEngine(se),
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
	)
	return api, nil
}
