package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/mkazmin/chatcast-server/internal/auth"
	"github.com/mkazmin/chatcast-server/internal/config"
	"github.com/mkazmin/chatcast-server/internal/core"
	"github.com/mkazmin/chatcast-server/internal/proto"
	"github.com/mkazmin/chatcast-server/internal/store/sqlite"
)

func startTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	presence := core.NewPresence()
	broadcaster := core.NewBroadcaster(st, presence, &logger)
	verifier := core.VerifierFunc(func(token string) (core.UserIdentity, error) {
		identity, err := authService.Verify(token)
		if err != nil {
			return core.UserIdentity{}, err
		}
		return core.UserIdentity{UserID: identity.UserID, Username: identity.Username}, nil
	})

	server := NewServer(Deps{
		Store:       st,
		Verifier:    verifier,
		Presence:    presence,
		Broadcaster: broadcaster,
		Colors:      core.NewColorAssigner(core.DefaultMaxLuminance),
		AuthService: authService,
	}, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) rawOutbound {
	t.Helper()
	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal inbound: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write inbound: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestChatJoinMessageLeaveScenario(t *testing.T) {
	ts, authService := startTestServer(t)

	token, err := authService.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	identity, err := authService.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/chat"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Join: expect a users:list with alice online, then an empty messages:list.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Token: token, ChatID: "r1", ChatName: "Room1"})

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeUserList {
		t.Fatalf("expected users:list first, got %q", out.Type)
	}
	var users []proto.UserEntry
	if err := json.Unmarshal(out.Data, &users); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	if len(users) != 1 || users[0].UserID != identity.UserID || !users[0].IsOnline {
		t.Fatalf("unexpected users list: %+v", users)
	}

	out = readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeMessageList {
		t.Fatalf("expected messages:list after join, got %q", out.Type)
	}
	var messages []proto.MessageEntry
	if err := json.Unmarshal(out.Data, &messages); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty history, got %+v", messages)
	}

	// Add a message: expect the full history including it.
	sendInbound(t, ctx, conn, proto.InboundTypeAddMessage, proto.AddMessageData{
		UserID:      identity.UserID,
		ChatID:      "r1",
		MessageText: "hi",
	})

	out = readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeMessageList {
		t.Fatalf("expected messages:list after add, got %q", out.Type)
	}
	if err := json.Unmarshal(out.Data, &messages); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(messages) != 1 || messages[0].MessageText != "hi" || messages[0].SenderName != "alice" {
		t.Fatalf("unexpected messages list: %+v", messages)
	}

	// Leave: membership survives, presence flips off.
	sendInbound(t, ctx, conn, proto.InboundTypeLeave, proto.LeaveData{Token: token, ChatID: "r1"})

	out = readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeUserList {
		t.Fatalf("expected users:list after leave, got %q", out.Type)
	}
	if err := json.Unmarshal(out.Data, &users); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	if len(users) != 1 || users[0].IsOnline {
		t.Fatalf("expected offline member after leave, got %+v", users)
	}
}

func TestJoinWithInvalidTokenGetsErrorEvent(t *testing.T) {
	ts, _ := startTestServer(t)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/chat"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Token: "bogus", ChatID: "r1"})

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", out)
	}
}

func TestMalformedPayloadGetsBadRequestWithoutClose(t *testing.T) {
	ts, authService := startTestServer(t)

	token, err := authService.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/chat"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Missing chatId.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Token: token})

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request error, got %+v", out)
	}

	// Connection must still work after the protocol error.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Token: token, ChatID: "r1"})
	out = readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeUserList {
		t.Fatalf("expected users:list after recovery, got %+v", out)
	}
}

func TestRegisterLoginEndpoints(t *testing.T) {
	ts, _ := startTestServer(t)

	body := strings.NewReader(`{"username":"alice","password":"password123"}`)
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", body)
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 201 {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if authResp.Token == "" {
		t.Fatalf("expected a token")
	}

	body = strings.NewReader(`{"username":"alice","password":"password123"}`)
	resp2, err := ts.Client().Post(ts.URL+"/api/login", "application/json", body)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 200 {
		t.Fatalf("unexpected login status: %d", resp2.StatusCode)
	}
}
