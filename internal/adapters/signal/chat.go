package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
)

// handleJoinChannel switches the session's single text-channel
// subscription; the previous subscription is dropped implicitly. Voice
// membership is unaffected.
func (ctl *SignalWSController) handleJoinChannel(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p core.JoinChannelRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-channel payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Channel == "" {
		ctl.sendError(conn, "empty channel")
		return
	}
	ctl.Orch.Registry.Subscribe(sid, p.Channel)
}

func (ctl *SignalWSController) handleChat(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p core.ChatRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Channel == "" || p.Content == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Orch.PublishChat(sid, p)
}
