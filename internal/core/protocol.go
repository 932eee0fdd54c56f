package core

import (
	"encoding/json"
	"time"

	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

// Event type discriminators for frames in both directions.
const (
	EvRegister    = "register"
	EvJoinVoice   = "join-voice"
	EvLeaveVoice  = "leave-voice"
	EvOffer       = "offer"
	EvAnswer      = "answer"
	EvJoinChannel = "join-channel"
	EvChat        = "chat"
	EvPing        = "ping"
	EvPong        = "pong"
	EvError       = "error"

	EvExistingPeers = "existing-peers"
	EvRosterUpdated = "roster-updated"
	EvPeerLeft      = "peer-left"
	EvUserStatus    = "user-status"
)

// RegisterRequest associates a user identity with the session.
type RegisterRequest struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type JoinVoiceRequest struct {
	Type     string        `json:"type"`
	Room     domain.RoomID `json:"room"`
	UserID   domain.UserID `json:"userId,omitempty"`
	Username string        `json:"username"`
}

type LeaveVoiceRequest struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

// SignalRequest carries one negotiation hop toward a specific peer.
// Payload is opaque: relayed verbatim, never parsed or validated here.
type SignalRequest struct {
	Type    string          `json:"type"`
	To      SessionID       `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// SignalEvent is the server-to-addressee side of a relay hop, tagged
// with the sender for correlation.
type SignalEvent struct {
	Type    string          `json:"type"`
	From    SessionID       `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// ExistingPeers seeds mesh initiation for a fresh joiner: the session ids
// of everyone already in the room, in join order.
type ExistingPeers struct {
	Type  string      `json:"type"`
	Peers []SessionID `json:"peers"`
}

type RosterUpdate struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"room"`
	Members []VoiceMember `json:"members"`
}

type PeerLeft struct {
	Type string    `json:"type"`
	SID  SessionID `json:"sessionId"`
}

type UserStatus struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId"`
	Connected bool          `json:"connected"`
}

type JoinChannelRequest struct {
	Type    string           `json:"type"`
	Channel domain.ChannelID `json:"channel"`
}

type ChatRequest struct {
	Type     string           `json:"type"`
	Channel  domain.ChannelID `json:"channel"`
	Username string           `json:"username,omitempty"`
	Content  string           `json:"content"`
}

type ChatEvent struct {
	Type     string           `json:"type"`
	Channel  domain.ChannelID `json:"channel"`
	From     SessionID        `json:"from"`
	UserID   domain.UserID    `json:"userId,omitempty"`
	Username string           `json:"username,omitempty"`
	Content  string           `json:"content"`
	SentAt   time.Time        `json:"sentAt"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
