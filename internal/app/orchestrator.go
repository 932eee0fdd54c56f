package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

const DefaultLookupTimeout = 2 * time.Second

// Orchestrator drives session state transitions against the presence
// registry and derives every broadcast from the mutation that caused it.
// The mutex serializes roster mutations together with their broadcasts,
// so all sessions observe roster updates in application order.
type Orchestrator struct {
	mu sync.Mutex

	Registry  *Registry
	Presence  *Presence
	Directory core.Directory
	Scope     BroadcastScope

	// LookupTimeout bounds the directory call during join. The lookup
	// runs outside the mutex; only the apply step is serialized.
	LookupTimeout time.Duration
}

func NewOrchestrator(reg *Registry, pres *Presence, dir core.Directory, scope BroadcastScope) *Orchestrator {
	return &Orchestrator{
		Registry:      reg,
		Presence:      pres,
		Directory:     dir,
		Scope:         scope,
		LookupTimeout: DefaultLookupTimeout,
	}
}

// Register associates a user identity with the session and announces the
// user as online.
func (o *Orchestrator) Register(sid core.SessionID, uid domain.UserID) {
	if !o.Registry.SetUser(sid, uid) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcastUserStatus(uid, true)
}

// PublishChat fans a chat message out to the channel's subscribers.
// Persistence is the message service's concern, not ours.
func (o *Orchestrator) PublishChat(sid core.SessionID, req core.ChatRequest) {
	uid, _ := o.Registry.UserOf(sid)
	ev := core.ChatEvent{
		Type:     core.EvChat,
		Channel:  req.Channel,
		From:     sid,
		UserID:   uid,
		Username: req.Username,
		Content:  req.Content,
		SentAt:   time.Now(),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("marshal chat")
		return
	}
	for _, conn := range o.Registry.SubscribersOf(req.Channel) {
		if err := conn.TrySend(b); err != nil {
			log.Debug().Err(err).Str("module", "app.orchestrator").Msg("chat send failed")
		}
	}
}

func (o *Orchestrator) broadcastRoster(room domain.RoomID, roster []core.VoiceMember) {
	o.broadcast(room, core.RosterUpdate{Type: core.EvRosterUpdated, Room: room, Members: roster}, "")
}

// broadcastPeerLeft tells peers to tear down their direct link to the
// departed session. The subject itself is skipped: it has no link to self.
func (o *Orchestrator) broadcastPeerLeft(room domain.RoomID, sid core.SessionID) {
	o.broadcast(room, core.PeerLeft{Type: core.EvPeerLeft, SID: sid}, sid)
}

func (o *Orchestrator) broadcastUserStatus(uid domain.UserID, connected bool) {
	o.broadcast("", core.UserStatus{Type: core.EvUserStatus, UserID: uid, Connected: connected}, "")
}

func (o *Orchestrator) broadcast(room domain.RoomID, v any, skip core.SessionID) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("marshal broadcast")
		return
	}
	for _, snap := range o.Scope.Targets(room, o.Registry) {
		if snap.SID == skip {
			continue
		}
		if err := snap.Signal.TrySend(core.Frame(b)); err != nil {
			log.Debug().Err(err).Str("module", "app.orchestrator").
				Str("sid", string(snap.SID)).Msg("broadcast send failed")
		}
	}
}
