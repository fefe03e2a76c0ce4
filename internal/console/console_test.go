package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/auth"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/database"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// recordedConn is a websocket stand-in that keeps everything written
// to it.
type recordedConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func newRecordedConn() *recordedConn { return &recordedConn{} }

func (c *recordedConn) Read(context.Context) (websocket.MessageType, []byte, error) {
	return 0, nil, errors.New("no reads in this test")
}

func (c *recordedConn) Write(_ context.Context, _ websocket.MessageType, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), payload...))
	return nil
}

func (c *recordedConn) CloseNow() error { return nil }

func (c *recordedConn) framesOfType(et wire.EventType) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [][]byte
	for _, frame := range c.frames {
		if wire.ParseEventType(frame) == et {
			out = append(out, frame)
		}
	}
	return out
}

func newTestConsole(t *testing.T) *Console {
	t.Helper()

	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Seed(db.Write))

	return NewConsole(db, WithJWTSecret("test-secret"))
}

func postJSON(t *testing.T, handler http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, handler http.Handler, username, password string) loginResponse {
	t.Helper()

	w := postJSON(t, handler, "/api/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestHandleLogin(t *testing.T) {
	c := newTestConsole(t)
	router := c.HttpRouter()

	resp := loginAs(t, router, "wanderer", "test")
	require.Equal(t, "wanderer", resp.Username)
	require.False(t, resp.IsAdmin)

	admin := loginAs(t, router, "overseer", "test")
	require.True(t, admin.IsAdmin)

	// The token works against the verifier used by the websocket route.
	identity, err := c.Signer.VerifyToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "wanderer", identity.Username)
}

func TestHandleLoginRejections(t *testing.T) {
	c := newTestConsole(t)
	router := c.HttpRouter()

	w := postJSON(t, router, "/api/auth/login", "", loginRequest{Username: "wanderer", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, router, "/api/auth/login", "", loginRequest{Username: "nobody", Password: "test"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketRequiresToken(t *testing.T) {
	c := newTestConsole(t)
	router := c.HttpRouter()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, w.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateChecksBan(t *testing.T) {
	c := newTestConsole(t)
	ctx := context.Background()

	account, err := c.DB.Read.FindAccountByUsername(ctx, "wanderer")
	require.NoError(t, err)
	token, err := c.Signer.CreateToken(auth.Identity{
		AccountID: account.ID,
		Username:  account.Username,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	identity, _, err := c.authenticate(req)
	require.NoError(t, err)
	require.Equal(t, account.ID, identity.AccountID)

	// A valid token stops working the moment the account is banned.
	_, err = c.DB.Writer.ExecContext(ctx, `UPDATE accounts SET is_banned = 1 WHERE id = ?`, account.ID)
	require.NoError(t, err)

	_, _, err = c.authenticate(req)
	require.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestHandleAnnounce(t *testing.T) {
	c := newTestConsole(t)
	router := c.HttpRouter()

	admin := loginAs(t, router, "overseer", "test")
	player := loginAs(t, router, "wanderer", "test")

	// Put one player in the world so there is somebody to notify.
	conn := newRecordedConn()
	_, err := c.World.Connect("conn-1", "acc-1", false, conn)
	require.NoError(t, err)
	require.NoError(t, c.World.Registry().BindCharacter("conn-1", "char-1", "Corvin", "Aspirant", "None", 0, 0))

	w := postJSON(t, router, "/api/admin/announce", player.Token, announceRequest{Text: "hello"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(t, router, "/api/admin/announce", "", announceRequest{Text: "hello"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, router, "/api/admin/announce", admin.Token, announceRequest{Text: "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/api/admin/announce", admin.Token, announceRequest{Text: "server restart soon"})
	require.Equal(t, http.StatusOK, w.Code)

	// Delivery rides the per-session writer, so wait for the flush.
	var frames [][]byte
	require.Eventually(t, func() bool {
		frames = conn.framesOfType(wire.Chat)
		return len(frames) == 1
	}, time.Second, 2*time.Millisecond)
	_, msg, err := wire.DecodeTyped[wire.ChatPayload](frames[0])
	require.NoError(t, err)
	require.Equal(t, "SERVER", msg.Content.Sender)
	require.Equal(t, "server restart soon", msg.Content.Text)
}

func TestHealthAndWellKnown(t *testing.T) {
	c := newTestConsole(t)
	router := c.HttpRouter()

	req := httptest.NewRequest(http.MethodGet, "/_health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/.well-known/console.json", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "consoleServerAddr")
}
