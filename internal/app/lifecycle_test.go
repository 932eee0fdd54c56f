package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make(core.Frame, len(f))
	copy(buf, f)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() {}

// events decodes every received frame into a generic map, in order.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("received unparseable frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func memberIDs(ev map[string]any) []string {
	raw, _ := ev["members"].([]any)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		mm := m.(map[string]any)
		out = append(out, mm["sessionId"].(string))
	}
	return out
}

type fakeDirectory struct {
	user domain.User
	err  error

	started chan struct{}
	release chan struct{}
}

func (d *fakeDirectory) Lookup(ctx context.Context, _ domain.UserID) (domain.User, error) {
	if d.started != nil {
		close(d.started)
		d.started = nil
	}
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return domain.User{}, ctx.Err()
		}
	}
	return d.user, d.err
}

func newTestOrchestrator(dir core.Directory) *Orchestrator {
	o := NewOrchestrator(NewRegistry(), NewPresence(), dir, GlobalScope{})
	o.LookupTimeout = time.Second
	return o
}

func bind(o *Orchestrator, sid string) *fakeConn {
	conn := &fakeConn{}
	o.Registry.Bind(core.SessionID(sid), conn, nil)
	return conn
}

// TestJoinLeaveDisconnectScenario walks the two-session mesh scenario:
// join, second join seeded with existing peers, disconnect with teardown.
func TestJoinLeaveDisconnectScenario(t *testing.T) {
	o := newTestOrchestrator(nil)
	c1 := bind(o, "s1")
	c2 := bind(o, "s2")

	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{
		Type: core.EvJoinVoice, Room: "general-voice", Username: "alice",
	})

	ev1 := c1.events(t)
	if len(ev1) != 2 {
		t.Fatalf("s1 received %d events after own join, want 2: %v", len(ev1), ev1)
	}
	if ev1[0]["type"] != core.EvExistingPeers {
		t.Errorf("first event to joiner = %v, want existing-peers", ev1[0]["type"])
	}
	if peers, _ := ev1[0]["peers"].([]any); len(peers) != 0 {
		t.Errorf("existing peers for first joiner = %v, want none", peers)
	}
	if ev1[1]["type"] != core.EvRosterUpdated {
		t.Fatalf("second event = %v, want roster-updated", ev1[1]["type"])
	}
	if got := memberIDs(ev1[1]); len(got) != 1 || got[0] != "s1" {
		t.Errorf("roster = %v, want [s1]", got)
	}

	// All sessions observe the roster change, not just room members.
	ev2 := c2.events(t)
	if len(ev2) != 1 || ev2[0]["type"] != core.EvRosterUpdated {
		t.Fatalf("bystander events = %v, want one roster-updated", ev2)
	}

	o.JoinVoice(context.Background(), "s2", core.JoinVoiceRequest{
		Type: core.EvJoinVoice, Room: "general-voice", Username: "bob",
	})

	ev2 = c2.events(t)
	if ev2[1]["type"] != core.EvExistingPeers {
		t.Fatalf("joiner's first event = %v, want existing-peers", ev2[1]["type"])
	}
	peers, _ := ev2[1]["peers"].([]any)
	if len(peers) != 1 || peers[0].(string) != "s1" {
		t.Errorf("existing peers for s2 = %v, want [s1]", peers)
	}
	if got := memberIDs(ev2[2]); len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Errorf("roster = %v, want [s1 s2] in join order", got)
	}

	o.Disconnect("s1")

	ev2 = c2.events(t)
	last := ev2[len(ev2)-2:]
	if last[0]["type"] != core.EvRosterUpdated {
		t.Fatalf("event after disconnect = %v, want roster-updated", last[0]["type"])
	}
	if got := memberIDs(last[0]); len(got) != 1 || got[0] != "s2" {
		t.Errorf("roster after s1 disconnect = %v, want [s2]", got)
	}
	if last[1]["type"] != core.EvPeerLeft || last[1]["sessionId"] != "s1" {
		t.Errorf("teardown event = %v, want peer-left s1", last[1])
	}
	if _, ok := o.Registry.Get("s1"); ok {
		t.Error("s1 still bound after disconnect")
	}
}

func TestJoinFallbackOnLookupFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("profile service down")}
	o := newTestOrchestrator(dir)
	c1 := bind(o, "s1")

	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{
		Type: core.EvJoinVoice, Room: "r", UserID: "u1", Username: "alice",
	})

	roster := o.Presence.Roster("r")
	if len(roster) != 1 {
		t.Fatalf("join blocked by lookup failure, roster = %v", roster)
	}
	if roster[0].Username != "alice" {
		t.Errorf("fallback username = %q, want alice", roster[0].Username)
	}
	if roster[0].Avatar != nil {
		t.Errorf("fallback avatar = %v, want nil", roster[0].Avatar)
	}
	if ev := c1.events(t); len(ev) != 2 {
		t.Errorf("joiner received %d events, want existing-peers + roster", len(ev))
	}
}

func TestJoinUsesDirectoryDisplay(t *testing.T) {
	avatar := "https://cdn.example/u1.png"
	dir := &fakeDirectory{user: domain.User{ID: "u1", Username: "Alice L.", Avatar: &avatar}}
	o := newTestOrchestrator(dir)
	bind(o, "s1")

	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{
		Type: core.EvJoinVoice, Room: "r", UserID: "u1", Username: "alice",
	})

	roster := o.Presence.Roster("r")
	if len(roster) != 1 {
		t.Fatal("join did not apply")
	}
	if roster[0].Username != "Alice L." {
		t.Errorf("username = %q, want directory value", roster[0].Username)
	}
	if roster[0].Avatar == nil || *roster[0].Avatar != avatar {
		t.Errorf("avatar = %v, want %q", roster[0].Avatar, avatar)
	}
}

// TestStaleJoinDiscarded: a leave issued while the display lookup is in
// flight supersedes the join; the late result must not be applied.
func TestStaleJoinDiscarded(t *testing.T) {
	dir := &fakeDirectory{
		user:    domain.User{ID: "u1", Username: "Alice L."},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(dir)
	c1 := bind(o, "s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{
			Type: core.EvJoinVoice, Room: "r", UserID: "u1", Username: "alice",
		})
	}()

	<-dir.started
	o.LeaveVoice("s1", "r")
	close(dir.release)
	<-done

	if roster := o.Presence.Roster("r"); len(roster) != 0 {
		t.Errorf("stale join applied, roster = %v", roster)
	}
	if ev := c1.events(t); len(ev) != 0 {
		t.Errorf("discarded join still emitted events: %v", ev)
	}
}

func TestDisconnectDuringLookup(t *testing.T) {
	dir := &fakeDirectory{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(dir)
	bind(o, "s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{
			Type: core.EvJoinVoice, Room: "r", UserID: "u1", Username: "alice",
		})
	}()

	<-dir.started
	o.Disconnect("s1")
	close(dir.release)
	<-done

	if roster := o.Presence.Roster("r"); len(roster) != 0 {
		t.Errorf("join applied to disconnected session, roster = %v", roster)
	}
}

// Leaving a room the session never joined changes nothing and emits
// nothing.
func TestLeaveNoopEmitsNothing(t *testing.T) {
	o := newTestOrchestrator(nil)
	c1 := bind(o, "s1")
	c2 := bind(o, "s2")

	o.LeaveVoice("s1", "never-joined")

	if ev := c1.events(t); len(ev) != 0 {
		t.Errorf("no-op leave emitted to leaver: %v", ev)
	}
	if ev := c2.events(t); len(ev) != 0 {
		t.Errorf("no-op leave emitted to bystander: %v", ev)
	}
}

// TestMoveRoomsBroadcastsBoth: switching rooms is one atomic operation
// that re-broadcasts the old room, tears down old links, and then
// announces the new roster.
func TestMoveRoomsBroadcastsBoth(t *testing.T) {
	o := newTestOrchestrator(nil)
	bind(o, "s1")
	c2 := bind(o, "s2")

	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{Room: "a", Username: "alice"})
	o.JoinVoice(context.Background(), "s2", core.JoinVoiceRequest{Room: "a", Username: "bob"})
	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{Room: "b", Username: "alice"})

	if got := sids(o.Presence.Roster("a")); !equalIDs(got, []string{"s2"}) {
		t.Errorf("room a roster = %v, want [s2]", got)
	}
	if got := sids(o.Presence.Roster("b")); !equalIDs(got, []string{"s1"}) {
		t.Errorf("room b roster = %v, want [s1]", got)
	}

	ev := c2.events(t)
	// s2 observed, after the move began: roster a=[s2], peer-left s1,
	// roster b=[s1], in exactly that order.
	tail := ev[len(ev)-3:]
	if tail[0]["type"] != core.EvRosterUpdated || tail[0]["room"] != "a" {
		t.Fatalf("move event 1 = %v, want roster-updated for a", tail[0])
	}
	if got := memberIDs(tail[0]); !equalIDs(got, []string{"s2"}) {
		t.Errorf("old room roster = %v, want [s2]", got)
	}
	if tail[1]["type"] != core.EvPeerLeft || tail[1]["sessionId"] != "s1" {
		t.Errorf("move event 2 = %v, want peer-left s1", tail[1])
	}
	if tail[2]["type"] != core.EvRosterUpdated || tail[2]["room"] != "b" {
		t.Errorf("move event 3 = %v, want roster-updated for b", tail[2])
	}
}

func TestRegisterAndOfflineStatus(t *testing.T) {
	o := newTestOrchestrator(nil)
	bind(o, "s1")
	c2 := bind(o, "s2")

	o.Register("s1", "u1")

	ev := c2.events(t)
	if len(ev) != 1 || ev[0]["type"] != core.EvUserStatus {
		t.Fatalf("events after register = %v, want one user-status", ev)
	}
	if ev[0]["userId"] != "u1" || ev[0]["connected"] != true {
		t.Errorf("online status = %v, want u1 connected", ev[0])
	}

	o.Disconnect("s1")

	ev = c2.events(t)
	last := ev[len(ev)-1]
	if last["type"] != core.EvUserStatus || last["connected"] != false {
		t.Errorf("offline status = %v, want u1 disconnected", last)
	}
}

func TestAnonymousDisconnectNoStatus(t *testing.T) {
	o := newTestOrchestrator(nil)
	bind(o, "s1")
	c2 := bind(o, "s2")

	o.Disconnect("s1")

	for _, ev := range c2.events(t) {
		if ev["type"] == core.EvUserStatus {
			t.Errorf("anonymous disconnect emitted user-status: %v", ev)
		}
	}
}

func TestChatFanout(t *testing.T) {
	o := newTestOrchestrator(nil)
	c1 := bind(o, "s1")
	c2 := bind(o, "s2")
	c3 := bind(o, "s3")

	o.Registry.Subscribe("s1", "general")
	o.Registry.Subscribe("s2", "general")
	o.Registry.Subscribe("s3", "other")

	o.PublishChat("s1", core.ChatRequest{
		Type: core.EvChat, Channel: "general", Username: "alice", Content: "hello",
	})

	for name, c := range map[string]*fakeConn{"sender": c1, "subscriber": c2} {
		ev := c.events(t)
		if len(ev) != 1 || ev[0]["type"] != core.EvChat {
			t.Fatalf("%s events = %v, want one chat", name, ev)
		}
		if ev[0]["content"] != "hello" || ev[0]["channel"] != "general" {
			t.Errorf("%s chat = %v", name, ev[0])
		}
	}
	if ev := c3.events(t); len(ev) != 0 {
		t.Errorf("other-channel subscriber received chat: %v", ev)
	}
}

// TestRoomScopeNarrowsDelivery checks the broadcast policy seam: with a
// room scope, bystanders stop seeing roster updates while the state
// machine stays untouched.
func TestRoomScopeNarrowsDelivery(t *testing.T) {
	reg := NewRegistry()
	pres := NewPresence()
	o := NewOrchestrator(reg, pres, nil, RoomScope{Presence: pres})

	c1 := &fakeConn{}
	c2 := &fakeConn{}
	reg.Bind("s1", c1, nil)
	reg.Bind("s2", c2, nil)

	o.JoinVoice(context.Background(), "s1", core.JoinVoiceRequest{Room: "a", Username: "alice"})

	if ev := c2.events(t); len(ev) != 0 {
		t.Errorf("room-scoped broadcast reached bystander: %v", ev)
	}
	ev := c1.events(t)
	if len(ev) != 2 || ev[1]["type"] != core.EvRosterUpdated {
		t.Errorf("member events = %v, want existing-peers + roster-updated", ev)
	}
}
