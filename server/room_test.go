package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type testEnvelope struct {
	Type     string              `json:"type"`
	PlayerID PlayerID            `json:"playerId"`
	Players  map[PlayerID]Player `json:"players"`
	Sender   string              `json:"sender"`
	Message  string              `json:"message"`
	Reason   string              `json:"reason"`
	Map      json.RawMessage     `json:"map"`
}

func newTestRoom(t *testing.T, maxPlayers int) (*Room, *Broadcaster) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	bc := NewBroadcaster(metrics)
	m := floorMap()
	m.Raw = json.RawMessage(`{"width":800,"height":600}`)
	room := NewRoom(RoomConfig{
		Map:         m,
		MaxPlayers:  maxPlayers,
		TickRate:    20,
		Physics:     testPhysics,
		Broadcaster: bc,
		Conns:       NewConnManager(1),
		Metrics:     metrics,
	})
	return room, bc
}

func runRoom(t *testing.T, room *Room) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go room.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-room.Done()
	})
}

func newTestSession(bc *Broadcaster, ip string) *Session {
	conn := NewClientConn(nil)
	bc.Subscribe(conn)
	return &Session{conn: conn, ip: ip}
}

// drain 读出连接队列中已有的全部消息
func drain(t *testing.T, c *ClientConn) []testEnvelope {
	t.Helper()
	var out []testEnvelope
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var env testEnvelope
			if err := json.Unmarshal(b, &env); err != nil {
				t.Fatalf("bad outbound json %s: %v", b, err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

// TestRoomJoinReplyBeforeState checks the join reply precedes chat and the first snapshot
func TestRoomJoinReplyBeforeState(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	s := newTestSession(bc, "10.0.0.1")

	id, err := room.join(s, "alice", json.RawMessage(`"#fff"`))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	room.Tick()

	msgs := drain(t, s.conn)
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Type != "join" || msgs[0].PlayerID != id || len(msgs[0].Map) == 0 {
		t.Errorf("Expected join reply with id and map, got %+v", msgs[0])
	}
	if msgs[1].Type != "chat" || msgs[1].Sender != SystemSender || msgs[1].Message != "alice joined the game" {
		t.Errorf("Expected system join notice, got %+v", msgs[1])
	}
	if msgs[2].Type != "state" {
		t.Fatalf("Expected state, got %+v", msgs[2])
	}
	p, ok := msgs[2].Players[id]
	if !ok || p.Nickname != "alice" || p.Y != 101 {
		t.Errorf("Expected alice one tick after spawn, got %+v", msgs[2].Players)
	}
}

// TestRoomStateToUnjoinedConnections verifies every open connection receives snapshots
func TestRoomStateToUnjoinedConnections(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	watcher := newTestSession(bc, "10.0.0.2")

	room.Tick()

	msgs := drain(t, watcher.conn)
	if len(msgs) != 1 || msgs[0].Type != "state" || len(msgs[0].Players) != 0 {
		t.Errorf("Expected one empty state, got %+v", msgs)
	}
}

// TestRoomConcurrentJoinSameNickname lets many goroutines race for one nickname
func TestRoomConcurrentJoinSameNickname(t *testing.T) {
	room, bc := newTestRoom(t, 16)
	runRoom(t, room)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		taken     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Join(newTestSession(bc, "10.0.0.3"), "alice", nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNameTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || taken != n-1 {
		t.Errorf("Expected 1 success and %d ErrNameTaken, got %d and %d", n-1, successes, taken)
	}
}

// TestRoomCapacityFreedByLeave fills the room, leaves one, and joins again
func TestRoomCapacityFreedByLeave(t *testing.T) {
	room, bc := newTestRoom(t, 2)
	runRoom(t, room)

	a, err := room.Join(newTestSession(bc, "1"), "alice", nil)
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if _, err := room.Join(newTestSession(bc, "2"), "bob", nil); err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if _, err := room.Join(newTestSession(bc, "3"), "carol", nil); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	room.RequestLeave(a)
	if _, err := room.Join(newTestSession(bc, "3"), "carol", nil); err != nil {
		t.Errorf("Expected join after leave to succeed, got %v", err)
	}
}

// TestRoomLeaveTwice simulates a duplicate close event
func TestRoomLeaveTwice(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	runRoom(t, room)

	a, _ := room.Join(newTestSession(bc, "1"), "alice", nil)
	b, _ := room.Join(newTestSession(bc, "2"), "bob", nil)

	room.RequestLeave(a)
	room.RequestLeave(a)

	players, err := room.Players()
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 1 || players[0].ID != b {
		t.Errorf("Expected only bob left, got %+v", players)
	}
}

// TestRoomInputDrivesTick applies queued input before the next tick resolves
func TestRoomInputDrivesTick(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	id, _ := room.join(newTestSession(bc, "1"), "alice", nil)

	room.OnInput(Input{PlayerID: id, Keys: Keys{D: true}})
	room.OnInput(Input{PlayerID: "ghost", Keys: Keys{A: true}})
	room.ProcessPending()
	room.Tick()

	p, _ := room.world.Get(id)
	if p.X != 105 {
		t.Errorf("Expected x 105 after one tick moving right, got %v", p.X)
	}
}

// TestRoomInputWaitsWhenQueueFull keeps a key release queued behind a full channel
func TestRoomInputWaitsWhenQueueFull(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	id, _ := room.join(newTestSession(bc, "1"), "alice", nil)

	for i := 0; i < cap(room.inputChan); i++ {
		room.OnInput(Input{PlayerID: id, Keys: Keys{D: true}})
	}
	queued := make(chan struct{})
	go func() {
		room.OnInput(Input{PlayerID: id, Keys: Keys{}})
		close(queued)
	}()

	select {
	case <-queued:
		t.Fatal("Expected input to wait while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	room.ProcessPending()
	<-queued
	room.ProcessPending()

	p, _ := room.world.Get(id)
	if p.VelocityX != 0 {
		t.Errorf("Expected release applied last, got vx %v", p.VelocityX)
	}
}

// TestProcessPendingStopsAtQueuedWork leaves commands queued during the drain for the next tick
func TestProcessPendingStopsAtQueuedWork(t *testing.T) {
	room, _ := newTestRoom(t, 4)
	runs := 0
	var requeue func()
	requeue = func() {
		runs++
		room.cmds <- requeue
	}
	room.cmds <- requeue

	room.ProcessPending()
	if runs != 1 {
		t.Fatalf("Expected 1 run in the first drain, got %d", runs)
	}
	room.ProcessPending()
	if runs != 2 {
		t.Errorf("Expected 2 runs after the second drain, got %d", runs)
	}
}

// TestRoomChat relays chat with the sender nickname and drops unknown senders
func TestRoomChat(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	s := newTestSession(bc, "1")
	id, _ := room.join(s, "alice", nil)
	drain(t, s.conn)

	room.chat(id, "hello")
	room.chat("ghost", "boo")

	msgs := drain(t, s.conn)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 chat, got %+v", msgs)
	}
	if msgs[0].Sender != "alice" || msgs[0].Message != "hello" {
		t.Errorf("Unexpected chat %+v", msgs[0])
	}
}

// TestRoomKickAndBan notifies the target, closes it and removes the entity
func TestRoomKickAndBan(t *testing.T) {
	tests := []struct {
		name string
		ban  bool
		kind string
	}{
		{"kick", false, "kick"},
		{"ban", true, "ban"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, bc := newTestRoom(t, 4)
			target := newTestSession(bc, "10.0.0.9")
			other := newTestSession(bc, "10.0.0.10")
			_, _ = room.join(target, "alice", nil)
			_, _ = room.join(other, "bob", nil)
			drain(t, target.conn)
			drain(t, other.conn)

			if err := room.kick("alice", "afk", tt.ban); err != nil {
				t.Fatalf("kick: %v", err)
			}

			msgs := drain(t, target.conn)
			if len(msgs) != 1 || msgs[0].Type != tt.kind || msgs[0].Reason != "afk" {
				t.Errorf("Expected single %s message, got %+v", tt.kind, msgs)
			}
			if !target.conn.Closed() {
				t.Error("Expected target connection closed")
			}
			if room.world.FindByNickname("alice") != nil {
				t.Error("Expected alice removed from world")
			}
			if got := room.conns.IsBanned("10.0.0.9"); got != tt.ban {
				t.Errorf("Expected banned=%v, got %v", tt.ban, got)
			}
			left := drain(t, other.conn)
			if len(left) != 1 || left[0].Message != "alice left the game" {
				t.Errorf("Expected leave notice for others, got %+v", left)
			}
			if bc.Len() != 1 {
				t.Errorf("Expected closed connection unsubscribed, %d subscribers", bc.Len())
			}
		})
	}
}

// TestRoomKickUnknown reports a missing nickname
func TestRoomKickUnknown(t *testing.T) {
	room, _ := newTestRoom(t, 4)
	if err := room.kick("nobody", "x", false); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

// TestRoomClosed returns ErrRoomClosed once the loop stops
func TestRoomClosed(t *testing.T) {
	room, bc := newTestRoom(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	go room.Run(ctx)
	cancel()
	<-room.Done()

	if _, err := room.Join(newTestSession(bc, "1"), "alice", nil); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed, got %v", err)
	}
	// 不阻塞
	room.RequestLeave("1")
}
