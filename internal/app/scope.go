package app

import "github.com/Liberty76220/LibertyTalk/internal/domain"

// BroadcastScope decides which sessions observe a room's roster changes.
// The lifecycle manager never knows the policy; swapping scopes must not
// touch the state machine.
type BroadcastScope interface {
	Targets(room domain.RoomID, reg *Registry) []SessionSnap
}

// GlobalScope sends roster updates to every connected session, so
// clients can show voice activity in rooms they are not in. This matches
// the historical behavior of the chat service.
type GlobalScope struct{}

func (GlobalScope) Targets(_ domain.RoomID, reg *Registry) []SessionSnap {
	return reg.All()
}

// RoomScope narrows delivery to the room's current members.
type RoomScope struct {
	Presence *Presence
}

func (s RoomScope) Targets(room domain.RoomID, reg *Registry) []SessionSnap {
	members := s.Presence.Roster(room)
	out := make([]SessionSnap, 0, len(members))
	for _, m := range members {
		if conn, ok := reg.Get(m.SID); ok {
			out = append(out, SessionSnap{SID: m.SID, Signal: conn})
		}
	}
	return out
}
