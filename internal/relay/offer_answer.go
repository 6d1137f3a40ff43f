package relay

import (
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/faforever/ice-adapter/internal/signalmsg"
)

// dataChannelLabel is the single data channel a Relay ever creates.
const dataChannelLabel = "game"

func falsePtr() *bool { v := false; return &v }
func zeroUint16Ptr() *uint16 { v := uint16(0); return &v }

// createOffer implements offer creation (offerer only): on first call it
// creates the unordered, unreliable data channel; on later calls (ICE
// restart) it reuses the existing channel and sets the ICE-restart flag.
// Audio/video are declined implicitly, since the PeerConnection's API never
// registers any codecs (see webrtcpeer.NewAPI). The check-interval timer is
// always rearmed to a full interval after issuing the offer, win or lose.
func (r *Relay) createOffer() {
	if r.closing {
		return
	}

	restart := r.dc != nil
	if !restart {
		dc, err := r.pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{
			Ordered:        falsePtr(),
			MaxRetransmits: zeroUint16Ptr(),
		})
		if err != nil {
			r.log.Error("failed to create data channel", "err", err)
			r.armCheckTimer()
			return
		}
		r.dc = dc
		r.registerDataChannelCallbacks(dc)
	}

	offer, err := r.pc.CreateOffer(&webrtc.OfferOptions{ICERestart: restart})
	if err != nil {
		r.log.Error("failed to create offer", "err", err, "restart", restart)
		r.armCheckTimer()
		return
	}
	if err := r.pc.SetLocalDescription(offer); err != nil {
		r.log.Error("failed to set local description for offer", "err", err)
		r.armCheckTimer()
		return
	}
	if r.cb.OnSDP != nil {
		r.cb.OnSDP(signalmsg.NewOffer(offer))
	}
	r.armCheckTimer()
}

// createAnswer implements answer creation (answerer only), triggered by
// receipt of a remote offer. Audio/video are declined implicitly, same as
// createOffer.
func (r *Relay) createAnswer() {
	if r.closing {
		return
	}

	answer, err := r.pc.CreateAnswer(nil)
	if err != nil {
		r.log.Error("failed to create answer", "err", err)
		return
	}
	if err := r.pc.SetLocalDescription(answer); err != nil {
		r.log.Error("failed to set local description for answer", "err", err)
		return
	}
	if r.cb.OnSDP != nil {
		r.cb.OnSDP(signalmsg.NewAnswer(answer))
	}
}

// armCheckTimer (re)schedules the liveness tick a full CheckInterval out,
// canceling any pending one first. Only the offerer runs this timer; the
// answerer never calls it, satisfying the invariant that the answerer never
// starts a liveness timer.
func (r *Relay) armCheckTimer() {
	if r.checkTimer != nil {
		r.checkTimer.Stop()
	}
	if r.opts.Role != RoleOfferer || r.closing {
		return
	}
	r.checkTimer = r.exec.AfterFunc(r.opts.CheckInterval, r.onCheckTick)
}

// onCheckTick implements the offerer's check-interval tick (spec steps:
// missed-pong counting, stale-pong staleness, and the unconditional
// keepalive ping while connected).
func (r *Relay) onCheckTick() {
	if r.closing {
		return
	}
	tick := r.monitor.Tick(time.Now(), r.connected)
	if tick.Restart {
		r.createOffer()
	} else {
		r.armCheckTimer()
	}
	if tick.SendPing {
		r.sendPing()
	}
}
