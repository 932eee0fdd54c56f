package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
)

// Relay forwards negotiation payloads between two specific sessions. It
// is a pure pass-through: payloads are never parsed, validated or stored.
// A vanished destination is an expected race, dropped silently from the
// sender's point of view.
type Relay struct {
	Registry *Registry
}

func NewRelay(reg *Registry) *Relay {
	return &Relay{Registry: reg}
}

// RelayOffer forwards an offer payload to the addressed session, tagged
// with the sender's identity.
func (r *Relay) RelayOffer(from, to core.SessionID, payload json.RawMessage) {
	r.forward(core.EvOffer, from, to, payload)
}

// RelayAnswer is the symmetric reverse hop, tagged with the responder's
// identity for correlation back to the original offer.
func (r *Relay) RelayAnswer(from, to core.SessionID, payload json.RawMessage) {
	r.forward(core.EvAnswer, from, to, payload)
}

func (r *Relay) forward(ev string, from, to core.SessionID, payload json.RawMessage) {
	conn, ok := r.Registry.Get(to)
	if !ok {
		log.Debug().Str("module", "app.relay").
			Str("event", ev).Str("from", string(from)).Str("to", string(to)).
			Msg("destination gone, dropping signal")
		return
	}
	b, err := json.Marshal(core.SignalEvent{Type: ev, From: from, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal signal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").
			Str("to", string(to)).Msg("signal send failed")
	}
}
