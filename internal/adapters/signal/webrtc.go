package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
)

// handleOffer forwards one mesh negotiation hop. The payload is opaque
// SDP material belonging to the peer-connection layer; only the envelope
// is decoded here.
func (ctl *SignalWSController) handleOffer(sid core.SessionID, data []byte) {
	var p core.SignalRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer envelope")
		return
	}
	ctl.Relay.RelayOffer(sid, p.To, p.Payload)
}

func (ctl *SignalWSController) handleAnswer(sid core.SessionID, data []byte) {
	var p core.SignalRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer envelope")
		return
	}
	ctl.Relay.RelayAnswer(sid, p.To, p.Payload)
}
