package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

type sessionEntry struct {
	Signal  core.SignalConnection
	Cancel  context.CancelFunc
	UserID  domain.UserID
	Channel domain.ChannelID

	// joinGen seeds stale-join detection: bumped on every join, leave and
	// disconnect, so a metadata lookup that outlives its join is discarded.
	joinGen uint64
}

// Registry maps live session ids to their transport endpoints. It is the
// transport layer's view of sessions; voice membership lives in Presence.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

func (r *Registry) Get(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

// SetUser associates a user identity with the session. Until this is
// called the session is anonymous but may still join voice rooms.
func (r *Registry) SetUser(sid core.SessionID, uid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.UserID = uid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(uid)).Msg("registered user")
	return true
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.UserID == "" {
		return "", false
	}
	return e.UserID, true
}

// Subscribe moves the session's single text-channel subscription.
func (r *Registry) Subscribe(sid core.SessionID, ch domain.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Channel = ch
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("channel", string(ch)).Msg("subscribed channel")
	return true
}

func (r *Registry) SubscribersOf(ch domain.ChannelID) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.sessions))
	for _, e := range r.sessions {
		if e.Channel == ch {
			out = append(out, e.Signal)
		}
	}
	return out
}

type SessionSnap struct {
	SID    core.SessionID
	Signal core.SignalConnection
}

func (r *Registry) All() []SessionSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, SessionSnap{SID: sid, Signal: e.Signal})
	}
	return out
}

// BumpGen invalidates any in-flight join for the session and returns the
// new generation. Returns 0 for unknown sessions.
func (r *Registry) BumpGen(sid core.SessionID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return 0
	}
	e.joinGen++
	return e.joinGen
}

func (r *Registry) Gen(sid core.SessionID) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.joinGen
	}
	return 0
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
