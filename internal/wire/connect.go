package wire

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

var ProtoVersion = "dev"

// Connect dials the realtime endpoint with the bearer token and waits
// for the welcome event that confirms the session was created.
func Connect(ctx context.Context, wsURL, token string) (*websocket.Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	// Give 5 seconds to establish the WebSocket connection.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	headers := http.Header{}
	headers.Set("X-Version", ProtoVersion)
	headers.Set("Authorization", "Bearer "+token)

	ws, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{SupportedRealm},
		HTTPHeader:   headers,
	})
	if err != nil {
		return nil, err
	}

	// Expect to receive the welcome message.
	_, p, err := ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(p) != 1 || EventType(p[0]) != Welcome {
		return nil, fmt.Errorf("expected welcome message, got: %s", string(p))
	}

	return ws, nil
}

// SupportedRealm is the websocket subprotocol spoken by the realtime
// server and all of its clients.
const SupportedRealm = "tactics-realtime"

var _ WebSocketWriter = (*websocket.Conn)(nil)

type WebSocketWriter interface {
	Write(ctx context.Context, messageType websocket.MessageType, payload []byte) error
}

func Write(ctx context.Context, wsConn WebSocketWriter, payload []byte) error {
	return wsConn.Write(ctx, websocket.MessageText, payload)
}
