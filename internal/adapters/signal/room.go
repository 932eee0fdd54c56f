package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

func (ctl *SignalWSController) handleJoinVoice(
	ctx context.Context,
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p core.JoinVoiceRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Room == "" || len(p.Room) > domain.MaxRoomIDLen {
		ctl.sendError(conn, "bad_room")
		return
	}
	if _, err := domain.NewUser(p.UserID, p.Username); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendError(conn, "invalid_name")
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendError(conn, "rate_limited")
		return
	}

	log.Info().Str("module", "signal").
		Str("sid", string(sid)).Str("room", string(p.Room)).Msg("join voice")
	ctl.Orch.JoinVoice(ctx, sid, p)
}

// handleLeaveVoice removes the session from the room; the websocket
// itself stays open.
func (ctl *SignalWSController) handleLeaveVoice(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p core.LeaveVoiceRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Room == "" {
		ctl.sendError(conn, "bad_room")
		return
	}
	log.Info().Str("module", "signal").
		Str("sid", string(sid)).Str("room", string(p.Room)).Msg("leave voice")
	ctl.Orch.LeaveVoice(sid, p.Room)
}
