package realtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// mockWsConn records everything written to it. Reads are fed through a
// channel so the read loop can be driven from a test.
type mockWsConn struct {
	mu     sync.Mutex
	frames [][]byte
	reads  chan []byte
	closed bool
}

func newMockWsConn() *mockWsConn {
	return &mockWsConn{reads: make(chan []byte, 16)}
}

func (m *mockWsConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case payload, ok := <-m.reads:
		if !ok {
			return 0, nil, errors.New("connection reset")
		}
		return websocket.MessageText, payload, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (m *mockWsConn) Write(_ context.Context, _ websocket.MessageType, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, append([]byte(nil), payload...))
	return nil
}

func (m *mockWsConn) CloseNow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// framesOfType returns the recorded frames carrying the given event type.
func (m *mockWsConn) framesOfType(et wire.EventType) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [][]byte
	for _, frame := range m.frames {
		if wire.ParseEventType(frame) == et {
			out = append(out, frame)
		}
	}
	return out
}

// expectFrames waits for the writer goroutine to flush n frames of the
// given type, then returns them.
func (m *mockWsConn) expectFrames(t *testing.T, et wire.EventType, n int) [][]byte {
	t.Helper()

	var frames [][]byte
	require.Eventually(t, func() bool {
		frames = m.framesOfType(et)
		return len(frames) >= n
	}, time.Second, 2*time.Millisecond, "waiting for %d %s frames", n, et)
	require.Len(t, frames, n)
	return frames
}

func (m *mockWsConn) chatTexts(t *testing.T) []string {
	t.Helper()

	var texts []string
	for _, frame := range m.framesOfType(wire.Chat) {
		_, msg, err := wire.DecodeTyped[wire.ChatPayload](frame)
		require.NoError(t, err)
		texts = append(texts, msg.Content.Text)
	}
	return texts
}

// expectChatTexts waits for exactly the given chat texts, in order.
func (m *mockWsConn) expectChatTexts(t *testing.T, want ...string) {
	t.Helper()

	m.expectFrames(t, wire.Chat, len(want))
	require.Equal(t, want, m.chatTexts(t))
}

func (m *mockWsConn) chatErrors(t *testing.T) []string {
	t.Helper()

	var messages []string
	for _, frame := range m.framesOfType(wire.ChatError) {
		_, msg, err := wire.DecodeTyped[wire.ChatErrorPayload](frame)
		require.NoError(t, err)
		messages = append(messages, msg.Content.Error)
	}
	return messages
}

// expectChatErrors waits for exactly the given error messages, in order.
func (m *mockWsConn) expectChatErrors(t *testing.T, want ...string) {
	t.Helper()

	m.expectFrames(t, wire.ChatError, len(want))
	require.Equal(t, want, m.chatErrors(t))
}

// stallingConn never completes a write until the write context expires
// or the connection is closed. It stands in for a peer whose receive
// buffer is full.
type stallingConn struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (c *stallingConn) doneCh() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}

func (c *stallingConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case <-c.doneCh():
		return 0, nil, net.ErrClosed
	}
}

func (c *stallingConn) Write(ctx context.Context, _ websocket.MessageType, _ []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.doneCh():
		return net.ErrClosed
	}
}

func (c *stallingConn) CloseNow() error {
	done := c.doneCh()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(done)
	}
	return nil
}

func (c *stallingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeCharacterStore struct {
	characters map[string]CharacterInfo
}

func (s *fakeCharacterStore) GetCharacter(_ context.Context, id string) (CharacterInfo, error) {
	character, ok := s.characters[id]
	if !ok {
		return CharacterInfo{}, fmt.Errorf("character not found: %s", id)
	}
	return character, nil
}

func newTestWorld(characters ...CharacterInfo) *World {
	store := &fakeCharacterStore{characters: make(map[string]CharacterInfo)}
	for _, c := range characters {
		store.characters[c.ID] = c
	}
	return NewWorld(store)
}

// joinedSession connects and binds a character in one step, asserting
// both succeed.
func joinedSession(t *testing.T, w *World, connID string, isAdmin bool, character CharacterInfo, x, y float64) (*Session, *mockWsConn) {
	t.Helper()

	conn := newMockWsConn()
	session, err := w.Connect(connID, character.AccountID, isAdmin, conn)
	require.NoError(t, err)
	t.Cleanup(func() { w.Disconnect(session) })

	w.HandleIncomingEvent(context.Background(), Event{
		ConnID: connID,
		Type:   wire.JoinWorld,
		Payload: wire.ComposeTyped(wire.JoinWorld, wire.MessageContent[wire.JoinWorldRequest]{
			Content: wire.JoinWorldRequest{CharacterID: character.ID, X: x, Y: y},
		}),
	})
	require.True(t, session.InWorld())
	return session, conn
}

func chatEvent(connID string, req wire.ChatRequest) Event {
	return Event{
		ConnID: connID,
		Type:   wire.Chat,
		Payload: wire.ComposeTyped(wire.Chat, wire.MessageContent[wire.ChatRequest]{
			Content: req,
		}),
	}
}
