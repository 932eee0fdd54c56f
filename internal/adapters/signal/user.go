package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

func (ctl *SignalWSController) handleRegister(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p core.RegisterRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad register payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.UserID == "" || len(p.UserID) > domain.MaxUserIDLen {
		ctl.sendError(conn, "invalid user id")
		return
	}

	log.Info().Str("module", "signal").
		Str("sid", string(sid)).Str("user", string(p.UserID)).Msg("register")
	ctl.Orch.Register(sid, p.UserID)
}
