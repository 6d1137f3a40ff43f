// Package keepalive implements the application-level PING/PONG liveness
// protocol carried over the relay's data channel, and the offerer-only
// check-interval state machine that decides when to force an ICE restart.
//
// The state machine is kept free of I/O and timers so it can be driven
// directly from tests with a synthetic clock; the relay package wires it to
// the data channel and to an executor.Timer.
package keepalive

import (
	"bytes"
	"time"
)

// FrameSize is the fixed length of the PING and PONG frames, including the
// trailing NUL byte.
const FrameSize = 15

// Ping and Pong are the literal keepalive frames exchanged over the data
// channel. Peers distinguish them from game traffic purely by exact byte
// equality, so the trailing NUL is significant and must not be trimmed.
var (
	Ping = [FrameSize]byte{'I', 'C', 'E', 'A', 'D', 'A', 'P', 'T', 'E', 'R', 'P', 'I', 'N', 'G', 0}
	Pong = [FrameSize]byte{'I', 'C', 'E', 'A', 'D', 'A', 'P', 'T', 'E', 'R', 'P', 'O', 'N', 'G', 0}
)

// IsPing reports whether msg is byte-for-byte identical to the PING frame.
func IsPing(msg []byte) bool {
	return len(msg) == FrameSize && bytes.Equal(msg, Ping[:])
}

// IsPong reports whether msg is byte-for-byte identical to the PONG frame.
func IsPong(msg []byte) bool {
	return len(msg) == FrameSize && bytes.Equal(msg, Pong[:])
}

// Tick is what the offerer's check-interval timer must do next, decided by
// Monitor.Tick.
type Tick struct {
	// Restart is true if the caller must trigger an ICE restart (create a
	// fresh offer) before doing anything else this tick.
	Restart bool
	// SendPing is true if the caller must send a PING frame on the data
	// channel and then call Monitor.RecordPingSent.
	SendPing bool
}

// Monitor tracks the offerer-side keepalive bookkeeping described in
// spec §4.2: the last time a PING was sent, the last time a PONG was
// received, and the number of ticks since the last connect that found a PING
// sent and no PONG received (a PONG does not reset this count; only
// ResetOnConnect does). It never touches a clock itself; callers pass `now`
// explicitly.
type Monitor struct {
	missedPings          int
	lastSentPing         time.Time
	lastReceivedPong     time.Time
	pongTimeout          time.Duration
	missedPingsToRestart int
}

// NewMonitor creates a Monitor. pongTimeout is the maximum staleness a
// recorded PONG may have relative to a later sent PING before an ICE restart
// is forced; missedPingsToRestart is the missed-pong count, accumulated since
// the last ResetOnConnect, at which a restart is forced.
func NewMonitor(pongTimeout time.Duration, missedPingsToRestart int) *Monitor {
	return &Monitor{
		pongTimeout:          pongTimeout,
		missedPingsToRestart: missedPingsToRestart,
	}
}

// ResetOnConnect clears all bookkeeping. Call this on every false->true
// transition of the relay's connected flag.
func (m *Monitor) ResetOnConnect() {
	m.missedPings = 0
	m.lastSentPing = time.Time{}
	m.lastReceivedPong = time.Time{}
}

// RecordPong records that a PONG frame was received at now. Call this when
// an inbound data-channel message matches Pong.
func (m *Monitor) RecordPong(now time.Time) {
	m.lastReceivedPong = now
}

// RecordPingSent records that a PING frame was just sent at now, clearing
// any previously received PONG. Call this immediately after sending the
// PING a Tick.SendPing result asked for.
func (m *Monitor) RecordPingSent(now time.Time) {
	m.lastSentPing = now
	m.lastReceivedPong = time.Time{}
}

// MissedPings returns the missed-pong count since the last ResetOnConnect, exposed for
// tests and diagnostics.
func (m *Monitor) MissedPings() int {
	return m.missedPings
}

// Tick implements one offerer check-interval tick (spec §4.2, steps 1-4).
//
// If connected is false, Tick reports Restart and nothing else: the caller
// must not send a PING while disconnected. Otherwise Tick evaluates the
// missed-pong and pong-staleness conditions (which are mutually exclusive,
// since the first requires no PONG has been received since the last PING and
// the second requires one has) and always reports SendPing, matching the
// original implementation's behavior of still emitting a keepalive PING on a
// tick that also triggered a restart.
func (m *Monitor) Tick(now time.Time, connected bool) Tick {
	if !connected {
		return Tick{Restart: true}
	}

	var restart bool

	if !m.lastSentPing.IsZero() && m.lastReceivedPong.IsZero() {
		m.missedPings++
		if m.missedPings == m.missedPingsToRestart {
			restart = true
		}
	}

	if !m.lastSentPing.IsZero() && !m.lastReceivedPong.IsZero() && m.lastSentPing.After(m.lastReceivedPong) {
		if m.lastSentPing.Sub(m.lastReceivedPong) >= m.pongTimeout {
			restart = true
		}
	}

	return Tick{Restart: restart, SendPing: true}
}
