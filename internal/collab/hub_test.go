package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

var errNoBoard = errors.New("no such board")

// boardStore is an in-memory Loader and Saver.
type boardStore struct {
	mu    sync.Mutex
	docs  map[string]*document.Snapshot
	saves int
}

func newBoardStore(ids ...string) *boardStore {
	s := &boardStore{docs: make(map[string]*document.Snapshot)}
	for _, id := range ids {
		s.docs[id] = document.NewEmptySnapshot(0, true)
	}
	return s
}

func (s *boardStore) load(_ context.Context, boardID string) (*document.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.docs[boardID]
	if !ok {
		return nil, errNoBoard
	}
	return snap, nil
}

func (s *boardStore) save(_ context.Context, boardID string, snap *document.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[boardID] = snap
	s.saves++
	return nil
}

func (s *boardStore) get(boardID string) (*document.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[boardID], s.saves
}

func startHub(t *testing.T, store *boardStore) *Hub {
	t.Helper()
	h := NewHub(store.load, store.save, engine.DefaultOptions(), 0)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func join(t *testing.T, h *Hub, boardID, clientID string, canEdit bool) *Client {
	t.Helper()
	c := NewClient(h, nil, boardID, clientID, clientID, canEdit)
	require.True(t, h.Register(c))
	return c
}

func recv(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func expect(t *testing.T, c *Client, msgType string) *Message {
	t.Helper()
	msg := recv(t, c)
	require.Equal(t, msgType, msg.Type, "payload: %s", msg.Payload)
	return msg
}

// drain consumes the messages a client gets on joining.
func drain(t *testing.T, c *Client) {
	t.Helper()
	expect(t, c, TypeWelcome)
	expect(t, c, TypeDraw)
	expect(t, c, TypePresenceState)
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	default:
	}
}

// countType drains what c has been sent so far and counts messages of
// the given type.
func countType(t *testing.T, c *Client, msgType string) int {
	t.Helper()
	n := 0
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == msgType {
				n++
			}
		default:
			return n
		}
	}
}

func input(t *testing.T, h *Hub, c *Client, msgType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.True(t, h.enqueue(c, &Message{Type: msgType, Payload: data}))
}

func pointer(t *testing.T, h *Hub, c *Client, kind string, x, y float64) {
	t.Helper()
	input(t, h, c, TypePointer, PointerPayload{Kind: kind, X: x, Y: y})
}

func liveCount(t *testing.T, h *Hub, boardID string) int {
	t.Helper()
	var n int
	require.NoError(t, h.Do(context.Background(), boardID, func(e *engine.Engine) error {
		n = len(e.LiveIDs())
		return nil
	}))
	return n
}

func TestJoinSendsWelcomeAndPresence(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))

	a := join(t, h, "board_a", "a", true)
	welcome := expect(t, a, TypeWelcome)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, "a", wp.ClientID)
	assert.True(t, wp.CanEdit)
	assert.Equal(t, document.ColorBlack, wp.Palette.Background)

	paint := expect(t, a, TypeDraw)
	var dp DrawPayload
	require.NoError(t, json.Unmarshal(paint.Payload, &dp))
	assert.Equal(t, []engine.DrawCommand{{Op: engine.OpClear}}, dp.Commands)
	expect(t, a, TypePresenceState)

	b := join(t, h, "board_a", "b", false)
	drain(t, b)
	joinMsg := expect(t, a, TypePresenceJoin)
	assert.Equal(t, "b", joinMsg.ClientID)
	assert.Equal(t, 1, h.RoomCount())
}

func TestJoinUnknownBoard(t *testing.T) {
	h := startHub(t, newBoardStore())

	c := join(t, h, "board_missing", "a", true)
	expect(t, c, TypeError)
	_, ok := <-c.send
	assert.False(t, ok, "connection is closed")
	assert.Zero(t, h.RoomCount())
}

func TestDrawingIsBroadcast(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	drain(t, a)
	b := join(t, h, "board_a", "b", false)
	drain(t, b)
	expect(t, a, TypePresenceJoin)

	pointer(t, h, a, "down", 10, 10)
	pointer(t, h, a, "move", 20, 20)
	pointer(t, h, a, "up", 20, 20)

	for _, c := range []*Client{a, b} {
		expect(t, c, TypeDraw)
		msg := expect(t, c, TypeDraw)
		var dp DrawPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &dp))
		require.Len(t, dp.Commands, 1)
		assert.Equal(t, geom.Pt(20, 20), *dp.Commands[0].To)
	}
	assert.Equal(t, 1, liveCount(t, h, "board_a"))
}

func TestViewerInputIsRejected(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	v := join(t, h, "board_a", "v", false)
	drain(t, v)

	pointer(t, h, v, "down", 10, 10)

	expect(t, v, TypeError)
	assert.Zero(t, liveCount(t, h, "board_a"))
}

func TestInvalidInputReportsError(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	drain(t, a)

	pointer(t, h, a, "wiggle", 1, 1)
	msg := expect(t, a, TypeError)
	assert.Contains(t, string(msg.Payload), "wiggle")

	input(t, h, a, TypeResize, ResizePayload{Width: 0, Height: 10})
	expect(t, a, TypeError)
}

func TestSaveShortcutRepliesToSenderOnly(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	drain(t, a)
	b := join(t, h, "board_a", "b", true)
	drain(t, b)
	expect(t, a, TypePresenceJoin)

	pointer(t, h, a, "down", 5, 5)
	pointer(t, h, a, "up", 5, 5)
	expect(t, a, TypeDraw)
	expect(t, b, TypeDraw)

	input(t, h, a, TypeKey, KeyPayload{Kind: "down", Key: "s", Ctrl: true})

	msg := expect(t, a, TypeExportJSON)
	snap, err := document.ParseSnapshot(msg.Payload)
	require.NoError(t, err)
	assert.Len(t, snap.Paths, 1)

	liveCount(t, h, "board_a")
	assertQuiet(t, b)
}

func TestOneGestureAtATime(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	b := join(t, h, "board_a", "b", true)

	pointer(t, h, a, "down", 0, 0)
	pointer(t, h, b, "down", 50, 50)
	pointer(t, h, b, "move", 60, 60)
	pointer(t, h, a, "move", 10, 10)
	pointer(t, h, a, "up", 10, 10)

	var live []document.Stroke
	require.NoError(t, h.Do(context.Background(), "board_a", func(e *engine.Engine) error {
		live = e.Live()
		return nil
	}))
	require.Len(t, live, 1)
	assert.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, live[0].Points)
	assert.Equal(t, 2, countType(t, b, TypeError), "b is told the board is busy")
	assert.Zero(t, countType(t, a, TypeError))

	pointer(t, h, b, "down", 50, 50)
	pointer(t, h, b, "up", 50, 50)
	assert.Equal(t, 2, liveCount(t, h, "board_a"), "the board is free again")
}

func TestEraseStartsFromOwnPointer(t *testing.T) {
	store := newBoardStore("board_a")
	store.docs["board_a"] = &document.Snapshot{
		DarkMode: true,
		Paths:    []document.PathRecord{{Points: []geom.Point{{X: 500, Y: 500}}, Color: document.ColorWhite}},
	}
	h := startHub(t, store)
	a := join(t, h, "board_a", "a", true)
	b := join(t, h, "board_a", "b", true)

	pointer(t, h, b, "move", 10, 10)
	pointer(t, h, a, "move", 900, 900)
	input(t, h, b, TypeKey, KeyPayload{Kind: "down", Key: "Shift"})
	pointer(t, h, b, "move", 20, 20)
	input(t, h, b, TypeKey, KeyPayload{Kind: "up", Key: "Shift"})

	assert.Equal(t, 1, liveCount(t, h, "board_a"), "a's hover position does not extend b's eraser")
}

func TestLeavingMidGestureCancels(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	b := join(t, h, "board_a", "b", true)

	pointer(t, h, a, "down", 0, 0)
	pointer(t, h, a, "move", 10, 10)
	h.Unregister(a)

	var mode engine.Mode
	require.NoError(t, h.Do(context.Background(), "board_a", func(e *engine.Engine) error {
		mode = e.Mode()
		return nil
	}))
	assert.Equal(t, engine.ModeIdle, mode)
	assert.Zero(t, liveCount(t, h, "board_a"))

	pointer(t, h, b, "down", 1, 1)
	pointer(t, h, b, "up", 1, 1)
	assert.Equal(t, 1, liveCount(t, h, "board_a"))
}

func TestDoOnClosedBoardSavesAndCloses(t *testing.T) {
	store := newBoardStore("board_a")
	h := startHub(t, store)

	err := h.Do(context.Background(), "board_a", func(e *engine.Engine) error {
		return e.Import(document.NewSampleSnapshot())
	})
	require.NoError(t, err)

	snap, saves := store.get("board_a")
	assert.Equal(t, 1, saves)
	assert.Len(t, snap.Paths, len(document.NewSampleSnapshot().Paths))
	assert.Zero(t, h.RoomCount())
}

func TestViewDoesNotSave(t *testing.T) {
	store := newBoardStore("board_a")
	h := startHub(t, store)

	for range 3 {
		require.NoError(t, h.View(context.Background(), "board_a", func(e *engine.Engine) error {
			e.Export()
			return nil
		}))
	}

	_, saves := store.get("board_a")
	assert.Zero(t, saves)
	assert.Zero(t, h.RoomCount(), "the room still closes")
}

func TestDoErrors(t *testing.T) {
	store := newBoardStore("board_a")
	h := startHub(t, store)

	err := h.Do(context.Background(), "board_missing", func(*engine.Engine) error { return nil })
	assert.ErrorIs(t, err, errNoBoard)

	opErr := errors.New("nope")
	err = h.Do(context.Background(), "board_a", func(*engine.Engine) error { return opErr })
	assert.ErrorIs(t, err, opErr)
	_, saves := store.get("board_a")
	assert.Zero(t, saves, "failed operations do not save")
}

func TestPanicInOperationReloadsBoard(t *testing.T) {
	store := newBoardStore("board_a")
	h := startHub(t, store)
	a := join(t, h, "board_a", "a", true)
	drain(t, a)

	pointer(t, h, a, "down", 1, 1)
	pointer(t, h, a, "up", 1, 1)
	expect(t, a, TypeDraw)

	err := h.Do(context.Background(), "board_a", func(*engine.Engine) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	expect(t, a, TypeDraw)
	assert.Zero(t, liveCount(t, h, "board_a"), "unsaved stroke is gone")

	pointer(t, h, a, "down", 2, 2)
	pointer(t, h, a, "up", 2, 2)
	assert.Equal(t, 1, liveCount(t, h, "board_a"), "board still works")
}

func TestLastClientLeavingSaves(t *testing.T) {
	store := newBoardStore("board_a")
	h := startHub(t, store)
	a := join(t, h, "board_a", "a", true)

	pointer(t, h, a, "down", 3, 3)
	pointer(t, h, a, "up", 3, 3)
	h.Unregister(a)
	liveCount(t, h, "board_a")

	snap, saves := store.get("board_a")
	require.GreaterOrEqual(t, saves, 1)
	require.Len(t, snap.Paths, 1)
	assert.Equal(t, []geom.Point{{X: 3, Y: 3}}, snap.Paths[0].Points)
}

func TestStopSavesOpenBoards(t *testing.T) {
	store := newBoardStore("board_a")
	h := NewHub(store.load, store.save, engine.DefaultOptions(), 0)
	go h.Run()

	a := join(t, h, "board_a", "a", true)
	pointer(t, h, a, "down", 3, 3)
	pointer(t, h, a, "up", 3, 3)

	h.Stop()

	snap, saves := store.get("board_a")
	assert.Equal(t, 1, saves)
	assert.Len(t, snap.Paths, 1)

	err := h.Do(context.Background(), "board_a", func(*engine.Engine) error { return nil })
	assert.ErrorIs(t, err, ErrHubStopped)
	assert.False(t, h.Register(NewClient(h, nil, "board_a", "b", "b", true)))
}

func TestPresenceUpdateGoesToOthers(t *testing.T) {
	h := startHub(t, newBoardStore("board_a"))
	a := join(t, h, "board_a", "a", true)
	drain(t, a)
	b := join(t, h, "board_a", "b", false)
	drain(t, b)
	expect(t, a, TypePresenceJoin)

	input(t, h, b, TypePresenceUpdate, PresencePayload{Cursor: &CursorPos{X: 4, Y: 5}})

	msg := expect(t, a, TypePresenceUpdate)
	assert.Equal(t, "b", msg.ClientID)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, &CursorPos{X: 4, Y: 5}, p.Cursor)
	assert.Equal(t, "b", p.DisplayName)

	liveCount(t, h, "board_a")
	assertQuiet(t, b)
}
