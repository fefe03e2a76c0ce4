package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/metrics"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/coder/websocket"
)

// outboxSize bounds the per-session send queue. A peer that falls this
// far behind is disconnected instead of being allowed to stall anyone
// else's fan-out.
const outboxSize = 64

// writeTimeout bounds a single websocket write.
const writeTimeout = 5 * time.Second

// Session is the per-connection state. Identity fields are set once at
// authentication, character fields once at bind time; only the
// coordinates change afterwards, and only under the registry lock.
type Session struct {
	ConnID      string
	AccountID   string
	IsAdmin     bool
	ConnectedAt time.Time

	// Empty until the session enters the world. Immutable once set;
	// switching characters requires a reconnect.
	CharacterID string
	Name        string
	Rank        string
	Allegiance  string

	// World coordinates, guarded by the registry lock.
	x, y float64

	ws        ConnReadWriter
	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(connID, accountID string, isAdmin bool, conn ConnReadWriter) *Session {
	return &Session{
		ConnID:      connID,
		AccountID:   accountID,
		IsAdmin:     isAdmin,
		ConnectedAt: time.Now().In(time.UTC),
		ws:          conn,
		outbox:      make(chan []byte, outboxSize),
		done:        make(chan struct{}),
	}
}

// InWorld reports whether the session has a character bound.
func (s *Session) InWorld() bool { return s.CharacterID != "" }

func (s *Session) ReadNext(ctx context.Context) ([]byte, error) {
	if s.ws == nil {
		return nil, fmt.Errorf("not connected")
	}
	_, payload, err := s.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Send queues a payload for delivery and never blocks on the peer. A
// session whose queue overflows is closed; its read loop then tears the
// session down.
func (s *Session) Send(payload []byte) {
	if s.ws == nil {
		slog.Debug("not connected", logging.ConnID(s.ConnID))
		metrics.FailedMessageSends.WithLabelValues("not_connected").Inc()
		return
	}
	if len(payload) < 1 {
		slog.Debug("payload is too short", "length", len(payload))
		metrics.FailedMessageSends.WithLabelValues("payload_too_short").Inc()
		return
	}

	select {
	case <-s.done:
		metrics.FailedMessageSends.WithLabelValues("closed").Inc()
		return
	default:
	}

	select {
	case s.outbox <- payload:
	default:
		slog.Warn("Outbound queue overflow, closing the connection", logging.ConnID(s.ConnID))
		metrics.FailedMessageSends.WithLabelValues("queue_full").Inc()
		s.close()
	}
}

// writePump drains the outbox to the websocket one write at a time, so
// each recipient sees messages in the order they were queued.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.outbox:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wire.Write(ctx, s.ws, payload)
			cancel()
			if err != nil {
				slog.Warn("Could not send a WS message", logging.ConnID(s.ConnID), logging.Error(err))
				metrics.FailedMessageSends.WithLabelValues("write_error").Inc()
				s.close()
				return
			}
		}
	}
}

// close shuts the outbound side down and severs the transport. Safe to
// call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.ws != nil {
			_ = s.ws.CloseNow()
		}
	})
}

// State returns the wire representation of an in-world session. Call
// it only from registry methods that hold the lock, the coordinates
// are not safe to read otherwise.
func (s *Session) state() wire.PlayerState {
	return wire.PlayerState{
		ID:         s.CharacterID,
		Name:       s.Name,
		Rank:       s.Rank,
		Allegiance: s.Allegiance,
		X:          s.x,
		Y:          s.y,
	}
}

var _ ConnReadWriter = (*websocket.Conn)(nil)

type ConnReadWriter interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	CloseNow() error
}
