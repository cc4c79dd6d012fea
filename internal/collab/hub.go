package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

var ErrHubStopped = errors.New("hub stopped")

// Loader returns the persisted state of a board.
type Loader func(ctx context.Context, boardID string) (*document.Snapshot, error)

// Saver persists the state of a board.
type Saver func(ctx context.Context, boardID string, snap *document.Snapshot) error

// Op is work run against a board's engine on the hub goroutine.
type Op func(e *engine.Engine) error

const saveTimeout = 10 * time.Second

// Room is an open board: its engine, the buffer the engine paints into,
// and the clients watching it.
type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	engine   *engine.Engine
	canvas   *engine.CommandBuffer
	owner    string                // client whose gesture is in progress
	pointers map[string]geom.Point // clientID -> last pointer position
	dirty    bool
}

type request struct {
	boardID  string
	op       Op
	readOnly bool
	done     chan error
}

type inbound struct {
	client *Client
	msg    *Message
}

// Hub owns every open board. All engine access happens on the goroutine
// running Run, so events from websockets and HTTP are applied one at a
// time in arrival order.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // boardID -> room

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	requests   chan request
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once

	load         Loader
	save         Saver
	opts         engine.Options
	saveInterval time.Duration
}

func NewHub(load Loader, save Saver, opts engine.Options, saveInterval time.Duration) *Hub {
	return &Hub{
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inbound:      make(chan inbound),
		requests:     make(chan request),
		quit:         make(chan struct{}),
		stopped:      make(chan struct{}),
		load:         load,
		save:         save,
		opts:         opts,
		saveInterval: saveInterval,
	}
}

func (h *Hub) Run() {
	defer close(h.stopped)

	var tick <-chan time.Time
	if h.saveInterval > 0 {
		ticker := time.NewTicker(h.saveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case req := <-h.requests:
			req.done <- h.handleRequest(req)
		case <-tick:
			h.saveAll()
		case <-h.quit:
			h.saveAll()
			return
		}
	}
}

// Stop saves every changed board and ends Run. It must only be called
// once Run has started.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.stopped
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) enqueue(client *Client, msg *Message) bool {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
		return true
	case <-h.quit:
		return false
	}
}

// Do runs op against the board's engine on the hub goroutine and
// broadcasts whatever it painted. A board with no clients is opened for
// the call and saved and closed afterwards.
func (h *Hub) Do(ctx context.Context, boardID string, op Op) error {
	return h.submit(ctx, request{boardID: boardID, op: op, done: make(chan error, 1)})
}

// View runs op like Do but leaves the board's saved state alone. op must
// not change the engine.
func (h *Hub) View(ctx context.Context, boardID string, op Op) error {
	return h.submit(ctx, request{boardID: boardID, op: op, readOnly: true, done: make(chan error, 1)})
}

func (h *Hub) submit(ctx context.Context, req request) error {
	select {
	case h.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.quit:
		return ErrHubStopped
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomCount returns the number of open boards.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// --- Rooms ---

func (h *Hub) openRoom(boardID string) (*Room, error) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	h.mu.RUnlock()
	if ok {
		return room, nil
	}

	e, canvas, err := h.loadEngine(boardID)
	if err != nil {
		return nil, err
	}
	room = &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		pointers: make(map[string]geom.Point),
		presence: NewPresenceManager(),
		engine:   e,
		canvas:   canvas,
	}

	h.mu.Lock()
	h.rooms[boardID] = room
	h.mu.Unlock()

	slog.Debug("board opened", "board", boardID)
	return room, nil
}

func (h *Hub) loadEngine(boardID string) (*engine.Engine, *engine.CommandBuffer, error) {
	// Runs on the hub goroutine, outside any request context.
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	snap, err := h.load(ctx, boardID)
	if err != nil {
		return nil, nil, fmt.Errorf("load board %s: %w", boardID, err)
	}

	canvas := engine.NewCommandBuffer()
	e := engine.NewEngine(h.opts, canvas)
	if err := e.Import(snap); err != nil {
		return nil, nil, fmt.Errorf("import board %s: %w", boardID, err)
	}
	canvas.Flush()
	return e, canvas, nil
}

func (h *Hub) closeRoomIfEmpty(room *Room) {
	if len(room.clients) > 0 {
		return
	}
	h.saveRoom(room)

	h.mu.Lock()
	delete(h.rooms, room.boardID)
	h.mu.Unlock()

	slog.Debug("board closed", "board", room.boardID)
}

func (h *Hub) saveRoom(room *Room) {
	if !room.dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := h.save(ctx, room.boardID, room.engine.Export()); err != nil {
		slog.Error("save board", "board", room.boardID, "error", err)
		return
	}
	room.dirty = false
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

// resetRoom replaces a room's engine with the last saved state after a
// failed operation left it in an unknown state.
func (h *Hub) resetRoom(room *Room) {
	e, canvas, err := h.loadEngine(room.boardID)
	if err != nil {
		slog.Error("reload board", "board", room.boardID, "error", err)
		canvas = engine.NewCommandBuffer()
		e = engine.NewEngine(h.opts, canvas)
	}
	room.engine = e
	room.canvas = canvas
	room.owner = ""
	room.dirty = false

	for _, c := range room.clients {
		c.resync = true
	}
	h.flush(room)
}

// --- Clients ---

func (h *Hub) addClient(client *Client) {
	room, err := h.openRoom(client.BoardID)
	if err != nil {
		slog.Error("open board", "board", client.BoardID, "error", err)
		client.Send(errorMessage("board unavailable"))
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client

	width, height := room.engine.Size()
	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		BoardID:  room.boardID,
		CanEdit:  client.CanEdit,
		Palette:  room.engine.Palette(),
		Width:    width,
		Height:   height,
	})
	if err == nil {
		client.Send(welcome)
	}
	h.sendFullPaint(room, client)

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		joinMsg.ClientID = client.ClientID
		h.broadcastToRoom(room, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "client", client.ClientID, "board", client.BoardID, "canEdit", client.CanEdit)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	delete(room.pointers, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)

	if room.owner == client.ClientID {
		room.engine.Cancel()
		room.owner = ""
		h.flush(room)
	}

	// Broadcast leave to remaining clients
	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID})
	if err == nil {
		leaveMsg.ClientID = client.ClientID
		h.broadcastToRoom(room, leaveMsg, "")
	}

	h.closeRoomIfEmpty(room)

	slog.Info("client left", "client", client.ClientID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok || room.clients[sender.ClientID] != sender {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypePointer, TypeKey, TypeResize:
		h.handleInput(room, sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (h *Hub) handleInput(room *Room, sender *Client, msg *Message) {
	if !sender.CanEdit {
		sender.Send(errorMessage("read-only connection"))
		return
	}
	// One gesture at a time per board.
	if room.owner != "" && room.owner != sender.ClientID {
		sender.Send(errorMessage("board busy: another gesture is in progress"))
		return
	}

	var reply *Message
	err := h.guard(room, func(e *engine.Engine) error {
		// Gestures start from the sender's own pointer, not whoever
		// moved last.
		if room.owner == "" {
			if pos, ok := room.pointers[sender.ClientID]; ok {
				e.MovePointer(pos)
			}
		}
		var err error
		reply, err = applyInput(e, msg)
		return err
	}, true)
	if err != nil {
		sender.Send(errorMessage(err.Error()))
		return
	}
	if pos, ok := pointerPos(msg); ok {
		room.pointers[sender.ClientID] = pos
	}

	if room.engine.Mode() == engine.ModeIdle {
		room.owner = ""
	} else if room.owner == "" {
		room.owner = sender.ClientID
	}

	if reply != nil {
		sender.Send(reply)
	}
	h.flush(room)
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	presence, err := decodePresence(msg.Payload)
	if err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.ClientID, presence)

	// Broadcast to other clients in room
	outMsg, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(room, outMsg, sender.ClientID)
}

func (h *Hub) handleRequest(req request) error {
	room, err := h.openRoom(req.boardID)
	if err != nil {
		return err
	}
	defer h.closeRoomIfEmpty(room)

	if err := h.guard(room, req.op, !req.readOnly); err != nil {
		return err
	}
	if room.engine.Mode() == engine.ModeIdle {
		room.owner = ""
	}
	h.flush(room)
	return nil
}

// guard runs op and, when it mutates, marks the room changed. A panic
// inside op is an engine invariant violation; the room is reloaded from
// its last save and the panic is returned as an error.
func (h *Hub) guard(room *Room, op Op, mutates bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("board operation panicked", "board", room.boardID, "panic", r)
			err = fmt.Errorf("board %s: operation failed: %v", room.boardID, r)
			h.resetRoom(room)
		}
	}()

	if err := op(room.engine); err != nil {
		return err
	}
	if mutates {
		room.dirty = true
	}
	return nil
}

// --- Broadcast ---

// flush sends what the engine painted since the last flush to every
// client in the room.
func (h *Hub) flush(room *Room) {
	commands := room.canvas.Flush()
	var msg *Message
	if len(commands) > 0 {
		var err error
		msg, err = newMessage(TypeDraw, DrawPayload{Commands: commands})
		if err != nil {
			slog.Error("marshal draw", "error", err)
			return
		}
	}

	for _, c := range room.clients {
		switch {
		case c.resync:
			h.sendFullPaint(room, c)
		case msg != nil:
			if !c.Send(msg) {
				c.resync = true
			}
		}
	}
}

func (h *Hub) sendFullPaint(room *Room, client *Client) {
	buf := engine.NewCommandBuffer()
	room.engine.PaintTo(buf)

	msg, err := newMessage(TypeDraw, DrawPayload{Commands: buf.Flush()})
	if err != nil {
		slog.Error("marshal draw", "error", err)
		return
	}
	client.resync = !client.Send(msg)
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
