package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/codepair/codepair-server/internal/config"
	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/log"
	"github.com/codepair/codepair-server/internal/proto"
	"github.com/codepair/codepair-server/internal/runner"
	"github.com/codepair/codepair-server/internal/store"
	"github.com/codepair/codepair-server/internal/store/sqlite"
)

func startTestServer(t *testing.T, execURL string) (*httptest.Server, store.Store) {
	t.Helper()

	logger := log.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	run := runner.NewClient(execURL, 2*time.Second, logger)
	hub := core.NewHub(run, st, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := NewRouter(hub, st, config.Config{Addr: ":0"}, logger)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return ts, st
}

type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// mustFrame reads frames until one with the wanted event arrives.
func mustFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) outboundFrame {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read while waiting for %s: %v", event, err)
		}
		if frame.Event == event {
			return frame
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, "http://127.0.0.1:0")

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestCollaborationFlow(t *testing.T) {
	execService := execServiceStub(runner.ExecResponse{
		Language: "python",
		Version:  "3.12.0",
		Run:      runner.RunResult{Stdout: "1\n", Output: "1\n"},
	})
	defer execService.Close()

	ts, _ := startTestServer(t, execService.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	// A joins: seeded with the placeholder, presence is [alice].
	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "abc", User: "alice"})
	seed := mustFrame(t, ctx, connA, proto.EventCodeUpdate)
	var code proto.EventCodeUpdateData
	if err := json.Unmarshal(seed.Data, &code); err != nil {
		t.Fatalf("unmarshal seed: %v", err)
	}
	if code.Code != core.DefaultCode {
		t.Fatalf("unexpected seed: %q", code.Code)
	}
	members := decodeMembers(t, mustFrame(t, ctx, connA, proto.EventUserJoined))
	if len(members.Users) != 1 || members.Users[0] != "alice" {
		t.Fatalf("unexpected members: %v", members.Users)
	}

	// B joins: seeded with the still-untouched buffer, presence updates
	// reach both connections.
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "abc", User: "bob"})
	seed = mustFrame(t, ctx, connB, proto.EventCodeUpdate)
	if err := json.Unmarshal(seed.Data, &code); err != nil {
		t.Fatalf("unmarshal seed: %v", err)
	}
	if code.Code != core.DefaultCode {
		t.Fatalf("unexpected seed for bob: %q", code.Code)
	}
	members = decodeMembers(t, mustFrame(t, ctx, connB, proto.EventUserJoined))
	if len(members.Users) != 2 {
		t.Fatalf("unexpected members: %v", members.Users)
	}
	mustFrame(t, ctx, connA, proto.EventUserJoined)

	// A edits: B gets the update, A gets no echo.
	sendInbound(t, ctx, connA, proto.InboundTypeCodeChange, proto.CodeChangeData{Room: "abc", Code: "print(1)"})
	update := mustFrame(t, ctx, connB, proto.EventCodeUpdate)
	if err := json.Unmarshal(update.Data, &code); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if code.Code != "print(1)" {
		t.Fatalf("unexpected update: %q", code.Code)
	}

	// No echo to the editor: bob signals typing only after he received
	// the update, so any echo would already sit ahead of the typing
	// frame in alice's ordered event stream.
	sendInbound(t, ctx, connB, proto.InboundTypeTyping, proto.TypingData{Room: "abc", User: "bob"})
	var next outboundFrame
	if err := wsjson.Read(ctx, connA, &next); err != nil {
		t.Fatalf("read typing frame: %v", err)
	}
	if next.Event != proto.EventUserTyping {
		t.Fatalf("expected typing, got echoed frame: %+v", next)
	}

	// A executes: both connections receive the same response payload.
	sendInbound(t, ctx, connA, proto.InboundTypeCompileCode, proto.CompileCodeData{
		Room: "abc", Code: "print(1)", Language: "python", Version: "*",
	})
	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := mustFrame(t, ctx, conn, proto.EventCodeResponse)
		var result runner.ExecResponse
		if err := json.Unmarshal(frame.Data, &result); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if result.Run.Output != "1\n" {
			t.Fatalf("unexpected run output: %q", result.Run.Output)
		}
	}

	// B disconnects: A sees the shrunk member list.
	connB.Close(websocket.StatusNormalClosure, "done")
	members = decodeMembers(t, mustFrame(t, ctx, connA, proto.EventUserJoined))
	if len(members.Users) != 1 || members.Users[0] != "alice" {
		t.Fatalf("unexpected members after disconnect: %v", members.Users)
	}
}

func TestRoomDiagnosticsAPI(t *testing.T) {
	execService := execServiceStub(runner.ExecResponse{Run: runner.RunResult{Output: "hi\n"}})
	defer execService.Close()

	ts, _ := startTestServer(t, execService.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "abc", User: "alice"})
	mustFrame(t, ctx, conn, proto.EventUserJoined)

	sendInbound(t, ctx, conn, proto.InboundTypeCompileCode, proto.CompileCodeData{
		Room: "abc", Code: "print('hi')", Language: "python", Version: "*",
	})
	mustFrame(t, ctx, conn, proto.EventCodeResponse)

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/abc")
	if err != nil {
		t.Fatalf("room request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var room RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	if room.ID != "abc" || len(room.Users) != 1 || room.LastOutput != "hi\n" {
		t.Fatalf("unexpected room snapshot: %+v", room)
	}

	execsResp, err := ts.Client().Get(ts.URL + "/api/rooms/abc/executions")
	if err != nil {
		t.Fatalf("executions request: %v", err)
	}
	defer execsResp.Body.Close()
	var execs []ExecutionResponse
	if err := json.NewDecoder(execsResp.Body).Decode(&execs); err != nil {
		t.Fatalf("decode executions: %v", err)
	}
	if len(execs) != 1 || execs[0].Output != "hi\n" || !execs[0].OK {
		t.Fatalf("unexpected executions: %+v", execs)
	}

	notFound, err := ts.Client().Get(ts.URL + "/api/rooms/ghost")
	if err != nil {
		t.Fatalf("unknown room request: %v", err)
	}
	defer notFound.Body.Close()
	if notFound.StatusCode != 404 {
		t.Fatalf("expected 404 for unknown room, got %d", notFound.StatusCode)
	}
}

func TestProtocolErrors(t *testing.T) {
	ts, _ := startTestServer(t, "http://127.0.0.1:0")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	// Join without a user is rejected before reaching the hub.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "abc"})
	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Type != proto.OutboundTypeError || frame.Error == nil || frame.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", frame)
	}

	// Unknown message types are answered, not fatal.
	sendInbound(t, ctx, conn, "bogus", struct{}{})
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Error == nil || frame.Error.Code != core.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message, got %+v", frame)
	}

	// The connection still works afterwards.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "abc", User: "alice"})
	mustFrame(t, ctx, conn, proto.EventUserJoined)
}

func decodeMembers(t *testing.T, frame outboundFrame) proto.EventUserJoinedData {
	t.Helper()

	var members proto.EventUserJoinedData
	if err := json.Unmarshal(frame.Data, &members); err != nil {
		t.Fatalf("unmarshal members: %v", err)
	}
	return members
}

func execServiceStub(resp runner.ExecResponse) *httptest.Server {
	return httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		json.NewEncoder(w).Encode(resp)
	}))
}
