package relay

import (
	"errors"
	"net"

	"github.com/pion/webrtc/v4"
)

// registerDataChannelCallbacks wires the open/close/message handlers for the
// relay's single data channel, posting every event onto the executor.
func (r *Relay) registerDataChannelCallbacks(dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		r.exec.Go(func() {
			if r.closing {
				return
			}
			if r.cb.OnDataChannelOpen != nil {
				r.cb.OnDataChannelOpen()
			}
		})
	})

	dc.OnClose(func() {
		r.exec.Go(func() {
			if r.dc == dc {
				r.dc = nil
			}
		})
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if msg.IsString {
			return
		}
		// Copy because pion reuses its internal buffer after the callback
		// returns.
		data := append([]byte(nil), msg.Data...)
		r.exec.Go(func() { r.handleDataChannelMessage(data) })
	})
}

// readGameUDPLoop reads datagrams the game process sends to the bound local
// socket and hands them to the executor for the outbound half of the pump.
// The loop exits when Close closes the socket.
func (r *Relay) readGameUDPLoop() {
	defer close(r.readDone)

	buf := make([]byte, 65536)
	for {
		n, _, err := r.udpConn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.Debug("game udp read failed", "err", err)
			return
		}
		data := append([]byte(nil), buf[:n]...)
		r.exec.Go(func() { r.handleGameDatagram(data) })
	}
}

// handleGameDatagram implements the outbound half of the datagram pump
// (game -> peer): dropped if not connected, otherwise sent on the data
// channel unchanged.
func (r *Relay) handleGameDatagram(data []byte) {
	if r.closing || !r.connected || r.dc == nil {
		return
	}
	if r.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	if err := r.dc.Send(data); err != nil {
		r.log.Debug("failed to send datagram on data channel", "err", err)
	}
}

// sendToGame implements the inbound half of the datagram pump (peer ->
// game): sent verbatim to the fixed game address. Send failures are logged
// and discarded; datagrams are never retried.
func (r *Relay) sendToGame(data []byte) {
	if _, err := r.udpConn.WriteToUDP(data, r.gameAddr); err != nil {
		r.log.Debug("failed to send datagram to game", "err", err)
	}
}
