package core

// Frame is a raw wire payload, one JSON event per frame.
type Frame []byte

// SessionID identifies one transport connection. Transport-assigned,
// unique per connection, opaque to everything else.
type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
