package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

// Presence is the single owner of voice-room membership. Rosters are
// insertion-ordered; a session belongs to at most one room at a time.
// All other components read derived snapshots, never the live slices.
type Presence struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID][]core.VoiceMember
	roomOf map[core.SessionID]domain.RoomID
}

func NewPresence() *Presence {
	return &Presence{
		rooms:  make(map[domain.RoomID][]core.VoiceMember),
		roomOf: make(map[core.SessionID]domain.RoomID),
	}
}

// Join inserts a membership and returns the room's updated roster. If the
// session already belongs to a room, that membership is removed first in
// the same critical section, and the prior room's change is returned so
// the caller can broadcast it; prev is nil when rejoining the same room.
func (p *Presence) Join(room domain.RoomID, m core.VoiceMember) (roster []core.VoiceMember, prev *core.RoomChange) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.roomOf[m.SID]; ok {
		p.removeLocked(old, m.SID)
		if old != room {
			prev = &core.RoomChange{Room: old, Roster: p.rosterLocked(old)}
		}
	}

	p.rooms[room] = append(p.rooms[room], m)
	p.roomOf[m.SID] = room
	log.Info().Str("module", "app.presence").
		Str("sid", string(m.SID)).Str("room", string(room)).
		Int("members", len(p.rooms[room])).Msg("joined voice room")
	return p.rosterLocked(room), prev
}

// Leave removes the membership if present. Removing an absent membership
// is a no-op: changed reports whether anything happened, so the caller
// can skip the broadcast.
func (p *Presence) Leave(room domain.RoomID, sid core.SessionID) (roster []core.VoiceMember, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.roomOf[sid]
	if !ok || cur != room {
		return p.rosterLocked(room), false
	}
	p.removeLocked(room, sid)
	delete(p.roomOf, sid)
	log.Info().Str("module", "app.presence").
		Str("sid", string(sid)).Str("room", string(room)).Msg("left voice room")
	return p.rosterLocked(room), true
}

// LeaveAll removes the session from whichever room it occupies, for the
// disconnect path. Returns nil when no room was affected.
func (p *Presence) LeaveAll(sid core.SessionID) *core.RoomChange {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.roomOf[sid]
	if !ok {
		return nil
	}
	p.removeLocked(room, sid)
	delete(p.roomOf, sid)
	log.Info().Str("module", "app.presence").
		Str("sid", string(sid)).Str("room", string(room)).Msg("removed on disconnect")
	return &core.RoomChange{Room: room, Roster: p.rosterLocked(room)}
}

// PeersExcluding lists the other members' session ids in join order,
// used to seed mesh initiation for a fresh joiner.
func (p *Presence) PeersExcluding(room domain.RoomID, sid core.SessionID) []core.SessionID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	members := p.rooms[room]
	out := make([]core.SessionID, 0, len(members))
	for _, m := range members {
		if m.SID != sid {
			out = append(out, m.SID)
		}
	}
	return out
}

// Roster returns a snapshot of the room's membership. An unknown room is
// an empty roster, never an error.
func (p *Presence) Roster(room domain.RoomID) []core.VoiceMember {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rosterLocked(room)
}

func (p *Presence) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	room, ok := p.roomOf[sid]
	return room, ok
}

func (p *Presence) Rooms() []core.RoomInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(p.rooms))
	for room, members := range p.rooms {
		out = append(out, core.RoomInfo{Room: room, MemberCount: len(members)})
	}
	return out
}

func (p *Presence) removeLocked(room domain.RoomID, sid core.SessionID) {
	members := p.rooms[room]
	for i, m := range members {
		if m.SID == sid {
			p.rooms[room] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(p.rooms[room]) == 0 {
		delete(p.rooms, room)
	}
}

func (p *Presence) rosterLocked(room domain.RoomID) []core.VoiceMember {
	members := p.rooms[room]
	out := make([]core.VoiceMember, len(members))
	copy(out, members)
	return out
}
