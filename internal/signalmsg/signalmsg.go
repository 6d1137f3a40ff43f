// Package signalmsg defines the three JSON signaling message shapes exchanged
// with a remote peer (offer, answer, candidate) and converts them to and from
// pion/webrtc's SDP and ICE-candidate types.
//
// The relay package never talks to a signaling transport directly; it emits
// and consumes Messages through callbacks, leaving delivery to whatever the
// embedding adapter wires up (see the wstransport package for one transport).
package signalmsg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pion/webrtc/v4"
)

// Type identifies which of the three message shapes a Message holds.
type Type string

const (
	TypeOffer     Type = "offer"
	TypeAnswer    Type = "answer"
	TypeCandidate Type = "candidate"
)

// SDP mirrors a webrtc.SessionDescription on the wire.
type SDP struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// SDPFromPion converts a pion session description to its wire form.
func SDPFromPion(desc webrtc.SessionDescription) SDP {
	return SDP{Type: desc.Type.String(), SDP: desc.SDP}
}

// ToPion converts the wire form back to a pion session description.
func (s SDP) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch s.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("signalmsg: unsupported sdp type %q", s.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: s.SDP}, nil
}

// Candidate mirrors a webrtc.ICECandidateInit on the wire.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// CandidateFromPion converts a pion ICE candidate init to its wire form.
func CandidateFromPion(init webrtc.ICECandidateInit) Candidate {
	return Candidate{
		Candidate:     init.Candidate,
		SDPMid:        init.SDPMid,
		SDPMLineIndex: init.SDPMLineIndex,
	}
}

// ToPion converts the wire form back to a pion ICE candidate init.
func (c Candidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	}
}

// Message is one signaling message, in either direction. Exactly one of SDP
// or Candidate is set, matching Type.
type Message struct {
	Type      Type       `json:"type"`
	SDP       *SDP       `json:"sdp,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

// NewOffer builds an outbound offer message.
func NewOffer(desc webrtc.SessionDescription) Message {
	sdp := SDPFromPion(desc)
	return Message{Type: TypeOffer, SDP: &sdp}
}

// NewAnswer builds an outbound answer message.
func NewAnswer(desc webrtc.SessionDescription) Message {
	sdp := SDPFromPion(desc)
	return Message{Type: TypeAnswer, SDP: &sdp}
}

// NewCandidate builds an outbound candidate message.
func NewCandidate(init webrtc.ICECandidateInit) Message {
	c := CandidateFromPion(init)
	return Message{Type: TypeCandidate, Candidate: &c}
}

// Marshal encodes m as JSON.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Parse decodes a signaling message from data, rejecting unknown fields and
// any trailing data, and validates it has exactly the fields its Type
// requires. Parse failures are the caller's cue to log and skip the message
// rather than abort the session.
func Parse(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return Message{}, fmt.Errorf("signalmsg: decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Message{}, fmt.Errorf("signalmsg: unexpected trailing data")
	}
	if err := msg.validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (m Message) validate() error {
	switch m.Type {
	case TypeOffer:
		if m.SDP == nil {
			return fmt.Errorf("signalmsg: offer message missing sdp")
		}
		if m.SDP.Type != "offer" {
			return fmt.Errorf("signalmsg: offer message has sdp.type=%q", m.SDP.Type)
		}
		if m.Candidate != nil {
			return fmt.Errorf("signalmsg: offer message has unexpected candidate field")
		}
	case TypeAnswer:
		if m.SDP == nil {
			return fmt.Errorf("signalmsg: answer message missing sdp")
		}
		if m.SDP.Type != "answer" {
			return fmt.Errorf("signalmsg: answer message has sdp.type=%q", m.SDP.Type)
		}
		if m.Candidate != nil {
			return fmt.Errorf("signalmsg: answer message has unexpected candidate field")
		}
	case TypeCandidate:
		if m.Candidate == nil {
			return fmt.Errorf("signalmsg: candidate message missing candidate")
		}
		if m.SDP != nil {
			return fmt.Errorf("signalmsg: candidate message has unexpected sdp field")
		}
	default:
		return fmt.Errorf("signalmsg: unknown message type %q", m.Type)
	}
	return nil
}
