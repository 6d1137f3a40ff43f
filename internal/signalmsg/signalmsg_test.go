package signalmsg

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestOfferRoundTrip(t *testing.T) {
	msg := NewOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0..."})
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Type != TypeOffer || got.SDP == nil || got.SDP.SDP != "v=0..." {
		t.Fatalf("unexpected round trip: %+v", got)
	}

	desc, err := got.SDP.ToPion()
	if err != nil {
		t.Fatalf("ToPion: %v", err)
	}
	if desc.Type != webrtc.SDPTypeOffer {
		t.Fatalf("expected offer type, got %v", desc.Type)
	}
}

func TestAnswerRoundTrip(t *testing.T) {
	msg := NewAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0..."})
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Type != TypeAnswer {
		t.Fatalf("expected answer, got %q", got.Type)
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	mid := "0"
	var idx uint16 = 0
	msg := NewCandidate(webrtc.ICECandidateInit{
		Candidate:     "candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host",
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	})
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Type != TypeCandidate || got.Candidate == nil {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	init := got.Candidate.ToPion()
	if init.Candidate != msg.Candidate.Candidate {
		t.Fatalf("candidate string mismatch: %q", init.Candidate)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"type":"offer","sdp":{"type":"offer","sdp":"x"},"bogus":1}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"type":"offer","sdp":{"type":"offer","sdp":"x"}}{}`))
	if err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseRejectsMismatchedFields(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"type":"offer"}`),
		[]byte(`{"type":"offer","sdp":{"type":"answer","sdp":"x"}}`),
		[]byte(`{"type":"candidate","sdp":{"type":"offer","sdp":"x"}}`),
		[]byte(`{"type":"candidate"}`),
		[]byte(`{"type":"bogus"}`),
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}
