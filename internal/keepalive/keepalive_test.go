package keepalive

import (
	"testing"
	"time"
)

func TestPingPongLiterals(t *testing.T) {
	if len(Ping) != FrameSize || len(Pong) != FrameSize {
		t.Fatalf("PING/PONG must be %d bytes including the trailing NUL", FrameSize)
	}
	if Ping[FrameSize-1] != 0 || Pong[FrameSize-1] != 0 {
		t.Fatalf("PING/PONG must end with a NUL byte")
	}
	if string(Ping[:FrameSize-1]) != "ICEADAPTERPING" {
		t.Fatalf("unexpected PING payload: %q", Ping)
	}
	if string(Pong[:FrameSize-1]) != "ICEADAPTERPONG" {
		t.Fatalf("unexpected PONG payload: %q", Pong)
	}
}

func TestIsPingIsPong(t *testing.T) {
	if !IsPing(Ping[:]) {
		t.Fatal("IsPing(Ping) should be true")
	}
	if IsPing(Pong[:]) {
		t.Fatal("IsPing(Pong) should be false")
	}
	if !IsPong(Pong[:]) {
		t.Fatal("IsPong(Pong) should be true")
	}
	if IsPong([]byte("ICEADAPTERPONG")) { // missing trailing NUL: 14 bytes
		t.Fatal("14-byte payload without the trailing NUL must not match")
	}
	if IsPing([]byte{1, 2, 3, 4}) {
		t.Fatal("arbitrary game payload must not match PING")
	}
}

func TestMonitor_NotConnectedAlwaysRestartsAndNeverPings(t *testing.T) {
	m := NewMonitor(15*time.Second, 2)
	tick := m.Tick(time.Unix(0, 0), false)
	if !tick.Restart || tick.SendPing {
		t.Fatalf("expected {Restart:true SendPing:false}, got %+v", tick)
	}
}

func TestMonitor_MissedPingsTriggersRestartOnSecondMiss(t *testing.T) {
	m := NewMonitor(15*time.Second, 2)
	now := time.Unix(0, 0)

	tick := m.Tick(now, true)
	if tick.Restart {
		t.Fatal("first tick with no prior ping must not restart")
	}
	if !tick.SendPing {
		t.Fatal("connected tick must always send a ping")
	}
	m.RecordPingSent(now)

	now = now.Add(10 * time.Second)
	tick = m.Tick(now, true) // 1st missed pong
	if tick.Restart {
		t.Fatal("one missed pong must not restart yet")
	}
	m.RecordPingSent(now)

	now = now.Add(10 * time.Second)
	tick = m.Tick(now, true) // 2nd consecutive missed pong
	if !tick.Restart {
		t.Fatal("two consecutive missed pongs must restart")
	}
	if !tick.SendPing {
		t.Fatal("a restart-triggering tick must still send a ping")
	}
}

func TestMonitor_PongPreventsMissedPingIncrement(t *testing.T) {
	m := NewMonitor(15*time.Second, 2)
	now := time.Unix(0, 0)

	m.Tick(now, true)
	m.RecordPingSent(now)

	now = now.Add(5 * time.Second)
	m.RecordPong(now)

	now = now.Add(5 * time.Second)
	tick := m.Tick(now, true)
	if tick.Restart {
		t.Fatal("a received pong must prevent a missed-ping restart")
	}
	if m.MissedPings() != 0 {
		t.Fatalf("expected missed ping counter to stay 0, got %d", m.MissedPings())
	}
}

func TestMonitor_StalePongTriggersRestart(t *testing.T) {
	m := NewMonitor(15*time.Second, 2)

	// RecordPingSent always clears the last-received-pong marker, so the only
	// way lastSentPing can end up after lastReceivedPong is a pong recorded
	// (with a stale timestamp) for an earlier ping than the most recent one.
	m.RecordPingSent(time.Unix(100, 0))
	m.RecordPong(time.Unix(80, 0))

	tick := m.Tick(time.Unix(200, 0), true)
	if !tick.Restart {
		t.Fatal("a pong 20s staler than the last sent ping must restart")
	}
}

func TestMonitor_ResetOnConnectClearsState(t *testing.T) {
	m := NewMonitor(15*time.Second, 2)
	now := time.Unix(0, 0)
	m.Tick(now, true)
	m.RecordPingSent(now)
	m.Tick(now.Add(10*time.Second), true)

	m.ResetOnConnect()
	if m.MissedPings() != 0 {
		t.Fatalf("expected missed pings cleared, got %d", m.MissedPings())
	}

	// After reset, a fresh tick behaves like a brand new connection: no
	// restart just because a ping was "previously" sent.
	tick := m.Tick(now.Add(20*time.Second), true)
	if tick.Restart {
		t.Fatal("tick immediately after ResetOnConnect must not restart")
	}
}
