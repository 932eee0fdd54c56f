package signal

import "github.com/Liberty76220/LibertyTalk/internal/core"

func (ctl *SignalWSController) handlePing(conn *wsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: core.EvPong,
	}
	ctl.sendJSON(conn, resp)
}
