package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

// JoinVoice moves the session into a voice room. The display lookup runs
// before the critical section with a bounded context; if the session
// leaves or disconnects while the lookup is in flight, the late result is
// discarded via the join generation. A failed lookup degrades to the
// username from the request: voice presence is never blocked on the
// profile service.
func (o *Orchestrator) JoinVoice(ctx context.Context, sid core.SessionID, req core.JoinVoiceRequest) {
	gen := o.Registry.BumpGen(sid)
	if gen == 0 {
		return
	}

	display := domain.User{ID: req.UserID, Username: req.Username}
	if o.Directory != nil && req.UserID != "" {
		lctx, cancel := context.WithTimeout(ctx, o.LookupTimeout)
		u, err := o.Directory.Lookup(lctx, req.UserID)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("module", "app.lifecycle").
				Str("user", string(req.UserID)).Msg("display lookup failed, using fallback")
		} else {
			display = u
			if display.Username == "" {
				display.Username = req.Username
			}
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Registry.Gen(sid) != gen {
		log.Info().Str("module", "app.lifecycle").
			Str("sid", string(sid)).Str("room", string(req.Room)).
			Msg("join superseded, discarding")
		return
	}
	conn, ok := o.Registry.Get(sid)
	if !ok {
		return
	}

	member := core.VoiceMember{
		SID:      sid,
		UserID:   req.UserID,
		Username: display.Username,
		Avatar:   display.Avatar,
	}
	roster, prev := o.Presence.Join(req.Room, member)

	// Leaving a prior room as part of the move: its peers tear down
	// their links to us and everyone sees its shrunken roster.
	if prev != nil {
		o.broadcastRoster(prev.Room, prev.Roster)
		o.broadcastPeerLeft(prev.Room, sid)
	}

	peers := o.Presence.PeersExcluding(req.Room, sid)
	o.sendTo(conn, core.ExistingPeers{Type: core.EvExistingPeers, Peers: peers})
	o.broadcastRoster(req.Room, roster)
}

// LeaveVoice removes the session from the room. Leaving a room the
// session is not in changes nothing and emits nothing.
func (o *Orchestrator) LeaveVoice(sid core.SessionID, room domain.RoomID) {
	o.Registry.BumpGen(sid)

	o.mu.Lock()
	defer o.mu.Unlock()

	roster, changed := o.Presence.Leave(room, sid)
	if !changed {
		return
	}
	o.broadcastRoster(room, roster)
	o.broadcastPeerLeft(room, sid)
}

// Disconnect runs the full cleanup for a dropped session: voice
// membership, peer links, online status, registry entry.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.Registry.BumpGen(sid)
	o.Registry.Cancel(sid)
	uid, registered := o.Registry.UserOf(sid)

	o.mu.Lock()
	defer o.mu.Unlock()

	change := o.Presence.LeaveAll(sid)
	o.Registry.Unbind(sid)
	if change != nil {
		o.broadcastRoster(change.Room, change.Roster)
		o.broadcastPeerLeft(change.Room, sid)
	}
	if registered {
		o.broadcastUserStatus(uid, false)
	}
	log.Info().Str("module", "app.lifecycle").Str("sid", string(sid)).Msg("session disconnected")
}

func (o *Orchestrator) sendTo(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.lifecycle").Msg("marshal event")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "app.lifecycle").Msg("send failed")
	}
}
