package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/codepair/codepair-server/internal/runner"
	"github.com/codepair/codepair-server/internal/store"
)

// Hub owns the room registry and processes every room-scoped command on a
// single goroutine, so registry and room mutations never interleave and
// need no locking. Rooms are created lazily on first join and never
// evicted, even once empty: the registry only grows for the lifetime of
// the process, matching the behavior clients were built against.
//
// The one suspending operation is the remote execution call. It runs on
// its own goroutine and re-enters the loop through the results channel,
// targeting the room id captured at request time, so other commands keep
// flowing while a run is in flight.
type Hub struct {
	log    *zerolog.Logger
	runner runner.Runner
	store  store.Store // optional execution audit log, may be nil

	register   chan *Client
	unregister chan *Client
	requests   chan request
	results    chan *execResult
	queries    chan roomQuery

	rooms map[string]*Room

	runCtx context.Context
	done   chan struct{}
}

type request struct {
	client *Client
	cmd    *Command
}

type execResult struct {
	roomID   string
	language string
	version  string
	resp     *runner.ExecResponse
	ok       bool
}

// RoomInfo is a read-only snapshot of a room for diagnostics.
type RoomInfo struct {
	ID         string
	Users      []string
	Code       string
	Language   string
	LastOutput string
}

type roomQuery struct {
	roomID string
	reply  chan *RoomInfo
}

// NewHub creates the hub. The store may be nil to disable the execution
// audit log.
func NewHub(r runner.Runner, st store.Store, logger *zerolog.Logger) *Hub {
	return &Hub{
		log:        logger,
		runner:     r,
		store:      st,
		register:   make(chan *Client, 8),
		unregister: make(chan *Client, 8),
		requests:   make(chan request, 64),
		results:    make(chan *execResult, 16),
		queries:    make(chan roomQuery, 8),
		rooms:      make(map[string]*Room),
		done:       make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.runCtx = ctx
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			go h.pump(ctx, client)
		case client := <-h.unregister:
			h.handleDisconnect(client)
		case req := <-h.requests:
			h.dispatch(req.client, req.cmd)
		case res := <-h.results:
			h.finishRun(res)
		case q := <-h.queries:
			q.reply <- h.roomInfo(q.roomID)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient hands a connection to the hub and starts consuming its
// commands in submission order.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient reports that the transport closed the connection. The
// hub removes any active membership exactly once and closes the client's
// event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomInfo returns a snapshot of a room, or nil if the room was never
// created. The lookup runs on the hub goroutine.
func (h *Hub) RoomInfo(ctx context.Context, roomID string) (*RoomInfo, error) {
	q := roomQuery{roomID: roomID, reply: make(chan *RoomInfo, 1)}
	select {
	case h.queries <- q:
	case <-h.done:
		return nil, errors.New("hub stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case info := <-q.reply:
		return info, nil
	case <-h.done:
		return nil, errors.New("hub stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pump forwards one client's commands into the shared loop, preserving
// per-connection order.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.requests <- request{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	if c.closed {
		return
	}
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd.Room, cmd.User)
	case CommandLeaveRoom:
		h.handleLeave(c)
	case CommandSetCode:
		h.handleSetCode(c, cmd.Room, cmd.Code)
	case CommandTyping:
		h.handleTyping(c, cmd.Room, cmd.User)
	case CommandSetLanguage:
		h.handleSetLanguage(c, cmd.Room, cmd.Language)
	case CommandRunCode:
		h.handleRunCode(cmd)
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Msg("unknown command kind")
	}
}

// handleJoin moves the connection into the target room, creating it if
// this is the first join ever to that id. A connection belongs to at most
// one room, so an existing membership is dropped first.
func (h *Hub) handleJoin(c *Client, roomID, user string) {
	if c.InRoom() {
		h.detach(c, true)
	}

	room, ok := h.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		h.rooms[roomID] = room
		h.log.Info().Str("room", roomID).Msg("room created")
	}

	c.Room = roomID
	c.User = user
	room.AddClient(c)
	room.AddUser(user)

	// Seed the joiner with the current buffer, then announce the new
	// member list to the whole room, joiner included. Language is not
	// seeded; clients track it from languageUpdate broadcasts only.
	h.send(c, &Event{Kind: EventCodeUpdate, Room: roomID, Code: room.Code})
	room.Broadcast(h.membersEvent(room), nil)

	h.log.Debug().Str("room", roomID).Str("user", user).Str("client_id", c.ID).Msg("user joined")
}

func (h *Hub) handleLeave(c *Client) {
	if !c.InRoom() {
		return
	}
	h.detach(c, true)
}

// handleDisconnect mirrors an explicit leave. detach clears the session
// state, so a leave followed by the transport-level disconnect removes
// the membership only once.
func (h *Hub) handleDisconnect(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	if c.InRoom() {
		h.detach(c, true)
	}
	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Msg("client disconnected")
}

// detach removes the connection's membership from its current room.
// Membership is name-keyed: if another connection holds the same display
// name, that name disappears from presence here too.
func (h *Hub) detach(c *Client, broadcast bool) {
	room := h.rooms[c.Room]
	user := c.User
	c.Room = ""
	c.User = ""
	if room == nil {
		return
	}
	room.RemoveClient(c)
	room.RemoveUser(user)
	if broadcast {
		room.Broadcast(h.membersEvent(room), nil)
	}
	h.log.Debug().Str("room", room.ID).Str("user", user).Msg("user left")
}

// handleSetCode overwrites the room buffer, last write wins, and fans the
// new text out to everyone except the sender. Edits against an unknown
// room are dropped silently.
func (h *Hub) handleSetCode(c *Client, roomID, code string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	room.Code = code
	room.Broadcast(&Event{Kind: EventCodeUpdate, Room: roomID, Code: code}, c)
}

func (h *Hub) handleTyping(c *Client, roomID, user string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	room.Broadcast(&Event{Kind: EventUserTyping, Room: roomID, User: user}, c)
}

// handleSetLanguage stores the tag on the room and broadcasts it to
// everyone except the sender. Late joiners are still seeded with code
// only, so the stored value is informational.
func (h *Hub) handleSetLanguage(c *Client, roomID, language string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	room.Language = language
	room.Broadcast(&Event{Kind: EventLanguageUpdate, Room: roomID, Language: language}, c)
}

// handleRunCode dispatches one best-effort call to the execution service.
// Unknown room: fail fast, no remote call, no broadcast. The call itself
// runs off-loop; its outcome re-enters through h.results.
func (h *Hub) handleRunCode(cmd *Command) {
	if _, ok := h.rooms[cmd.Room]; !ok {
		return
	}

	req := runner.ExecRequest{
		Language: cmd.Language,
		Version:  cmd.Version,
		Files:    []runner.File{{Content: cmd.Code}},
		Stdin:    cmd.Stdin,
	}
	res := &execResult{roomID: cmd.Room, language: cmd.Language, version: cmd.Version}

	go func() {
		resp, err := h.runner.Execute(h.runCtx, req)
		if err != nil {
			res.resp = runner.Synthesized(err.Error())
		} else {
			res.resp = resp
			res.ok = true
		}
		select {
		case h.results <- res:
		case <-h.done:
		}
	}()
}

// finishRun lands an execution outcome back on the loop: record the
// output on the room, append the audit row, and broadcast the full
// response to every member, submitter included.
func (h *Hub) finishRun(res *execResult) {
	room, ok := h.rooms[res.roomID]
	if !ok {
		return
	}
	room.LastOutput = res.resp.Run.Output

	if h.store != nil {
		exec := store.Execution{
			RoomID:   res.roomID,
			Language: res.language,
			Version:  res.version,
			Output:   res.resp.Run.Output,
			OK:       res.ok,
		}
		if err := h.store.SaveExecution(h.runCtx, exec); err != nil {
			h.log.Warn().Err(err).Str("room", res.roomID).Msg("failed to record execution")
		}
	}

	room.Broadcast(&Event{Kind: EventRunResult, Room: res.roomID, Result: res.resp}, nil)
}

func (h *Hub) membersEvent(room *Room) *Event {
	return &Event{Kind: EventUserJoined, Room: room.ID, Users: room.Users()}
}

func (h *Hub) send(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}

func (h *Hub) roomInfo(roomID string) *RoomInfo {
	room, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	return &RoomInfo{
		ID:         room.ID,
		Users:      room.Users(),
		Code:       room.Code,
		Language:   room.Language,
		LastOutput: room.LastOutput,
	}
}
