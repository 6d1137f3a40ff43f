package webrtcpeer

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestNewAPI_PortRangeRejectsInvertedRange(t *testing.T) {
	_, err := NewAPI(NetworkOptions{PortMin: 2000, PortMax: 1000})
	if err == nil {
		t.Fatalf("expected an error for an inverted port range")
	}
}

func TestNewAPI_BuildsUsablePeerConnection(t *testing.T) {
	api, err := NewAPI(NetworkOptions{})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	defer pc.Close()

	dc, err := pc.CreateDataChannel("test", nil)
	if err != nil {
		t.Fatalf("CreateDataChannel: %v", err)
	}
	if dc.Label() != "test" {
		t.Fatalf("unexpected datachannel label %q", dc.Label())
	}
}
