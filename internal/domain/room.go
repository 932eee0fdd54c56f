package domain

const MaxRoomIDLen = 64

type (
	// RoomID names a voice room. Any session may join any room; no
	// server-membership check exists on the voice path.
	RoomID string

	// ChannelID names a text channel a session can subscribe to.
	ChannelID string
)
