package core

import "github.com/Liberty76220/LibertyTalk/internal/domain"

// VoiceMember is one (room, session) membership record. It is a read-only
// view for broadcasts and APIs; the presence registry owns the live set.
type VoiceMember struct {
	SID      SessionID     `json:"sessionId"`
	UserID   domain.UserID `json:"userId,omitempty"`
	Username string        `json:"username"`
	Avatar   *string       `json:"avatar,omitempty"`
}

// RoomChange reports a roster mutation: which room and its full roster
// after the change. Broadcast payloads are built from this, never
// reconstructed per recipient.
type RoomChange struct {
	Room   domain.RoomID
	Roster []VoiceMember
}

type RoomInfo struct {
	Room        domain.RoomID `json:"room"`
	MemberCount int           `json:"member_count"`
}
