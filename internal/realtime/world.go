package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/metrics"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/model"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/coder/websocket"
)

// CharacterInfo is the character snapshot the world reads at bind time.
type CharacterInfo struct {
	ID         string
	AccountID  string
	Name       string
	Rank       string
	Allegiance string
}

// CharacterStore resolves character ids. The realtime layer never
// writes characters back.
type CharacterStore interface {
	GetCharacter(ctx context.Context, id string) (CharacterInfo, error)
}

// Event is one unit of inbound work: a decoded frame tagged with the
// connection it arrived on. The sender identity always comes from the
// connection, never from the payload.
type Event struct {
	ConnID  string
	Type    wire.EventType
	Payload []byte
}

// World is the control plane for presence, movement and chat. All
// inbound events funnel through a single pump goroutine, which keeps
// the fan-out order per recipient equal to the order events were
// processed in. Deliveries themselves are queued on per-session writer
// goroutines, so a stalled peer never blocks the pump.
type World struct {
	stop     chan struct{}
	stopOnce sync.Once

	registry   *Registry
	characters CharacterStore

	Events chan Event
}

func NewWorld(characters CharacterStore) *World {
	return &World{
		stop:       make(chan struct{}),
		registry:   NewRegistry(),
		characters: characters,
		Events:     make(chan Event),
	}
}

// Registry exposes the session registry for the console handlers.
func (w *World) Registry() *Registry { return w.registry }

// Stop shuts the pump down. Safe to call from any goroutine, more than
// once.
func (w *World) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

func (w *World) Reset() {
	w.registry.forEachSession(func(session *Session) bool {
		session.close()
		return true
	})
}

// Run consumes the event pump until the context is cancelled or Stop
// is called.
func (w *World) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down the realtime world")
			w.Reset()
			return

		case <-w.stop:
			slog.Info("Shutting down the realtime world")
			w.Reset()
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			w.HandleIncomingEvent(ctx, ev)
		}
	}
}

// HandleIncomingEvent dispatches one inbound event by type.
func (w *World) HandleIncomingEvent(ctx context.Context, ev Event) {
	slog.Debug("Received an event", "type", ev.Type.String(), logging.ConnID(ev.ConnID))
	metrics.MessagesReceived.WithLabelValues(ev.Type.String()).Inc()

	switch ev.Type {
	case wire.JoinWorld:
		w.handleJoinWorld(ctx, ev)
	case wire.Position:
		w.handlePosition(ev)
	case wire.Chat:
		w.handleChat(ev)
	default:
		slog.Debug("Unhandled event type", "type", ev.Type.String())
		metrics.UnhandledMessageTypes.WithLabelValues(ev.Type.String()).Inc()
	}
}

// Connect registers a session for an authenticated connection, starts
// its writer and confirms with the welcome event. The welcome goes
// through the outbox like everything else, so a stalled peer cannot
// block the handshake.
func (w *World) Connect(connID, accountID string, isAdmin bool, conn ConnReadWriter) (*Session, error) {
	session, err := w.registry.Create(connID, accountID, isAdmin, conn)
	if err != nil {
		return nil, err
	}
	go session.writePump()
	session.Send([]byte{byte(wire.Welcome)})
	return session, nil
}

// HandleSession runs the read loop for one connection. It returns when
// the peer goes away or the context is cancelled; the session is torn
// down either way.
func (w *World) HandleSession(ctx context.Context, session *Session) error {
	defer w.Disconnect(session)

	for {
		payload, err := session.ReadNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}

			switch state := websocket.CloseStatus(err); state {
			case -1:
				// connection reset by peer
				metrics.WebSocketDisconnects.WithLabelValues("reset").Inc()
				return nil
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				metrics.WebSocketDisconnects.WithLabelValues("closed").Inc()
				slog.Debug("Closing because of", logging.Error(err))
				return err
			default:
				metrics.WebSocketDisconnects.WithLabelValues("error").Inc()
				slog.Error("Could not handle the message", logging.Error(err))
				return err
			}
		}
		if len(payload) == 0 {
			metrics.InvalidPayloads.Inc()
			continue
		}

		ev := Event{ConnID: session.ConnID, Type: wire.ParseEventType(payload), Payload: payload}
		select {
		case w.Events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Disconnect removes the session and, when it was in the world,
// notifies everyone else. Safe to call more than once; the leave event
// goes out at most once because only the first call gets the session
// back from the registry.
func (w *World) Disconnect(session *Session) {
	removed, ok := w.registry.Remove(session.ConnID)
	if !ok {
		return
	}

	removed.close()

	metrics.PlayerSessionDuration.Observe(time.Since(removed.ConnectedAt).Seconds())

	if !removed.InWorld() {
		return
	}
	slog.Info("Player left the world", logging.CharacterID(removed.CharacterID), "name", removed.Name)

	payload := wire.ComposeTyped(wire.PlayerLeft, wire.MessageContent[wire.PlayerRef]{
		Content: wire.PlayerRef{ID: removed.CharacterID},
	})
	for _, other := range w.registry.InWorldSessions(session.ConnID) {
		other.Send(payload)
	}
}

func (w *World) handleJoinWorld(ctx context.Context, ev Event) {
	session, ok := w.registry.Get(ev.ConnID)
	if !ok {
		return
	}

	_, m, err := wire.DecodeTyped[wire.JoinWorldRequest](ev.Payload)
	if err != nil {
		slog.Error("Could not decode the join request", logging.Error(err))
		metrics.InvalidPayloads.Inc()
		return
	}
	req := m.Content
	if req.CharacterID == "" {
		return
	}

	character, err := w.characters.GetCharacter(ctx, req.CharacterID)
	if err != nil {
		slog.Warn("Join rejected, unknown character", logging.CharacterID(req.CharacterID), logging.Error(err))
		return
	}
	if character.AccountID != session.AccountID {
		slog.Warn("Join rejected, character not owned by account",
			logging.CharacterID(req.CharacterID), "account", session.AccountID)
		return
	}

	rank := character.Rank
	if rank == "" {
		rank = model.RankAspirant
	}
	allegiance := character.Allegiance
	if allegiance == "" {
		allegiance = model.AllegianceNone
	}

	if err := w.registry.BindCharacter(ev.ConnID, character.ID, character.Name, rank, allegiance, req.X, req.Y); err != nil {
		// Second bind attempts are rejected, the first session keeps
		// the character.
		slog.Warn("Join rejected", logging.CharacterID(character.ID), logging.Error(err))
		return
	}

	// Tell the new arrival about everyone already in the world. The
	// roster excludes the joining session itself.
	for _, state := range w.registry.Roster(ev.ConnID) {
		session.Send(wire.ComposeTyped(wire.PlayerJoined, wire.MessageContent[wire.PlayerState]{
			Content: state,
		}))
	}

	// Tell everyone else about the new arrival.
	self, ok := w.registry.StateOf(ev.ConnID)
	if !ok {
		return
	}
	joined := wire.ComposeTyped(wire.PlayerJoined, wire.MessageContent[wire.PlayerState]{Content: self})
	for _, other := range w.registry.InWorldSessions(ev.ConnID) {
		other.Send(joined)
	}

	slog.Info("Player joined the world",
		logging.CharacterID(character.ID), "name", character.Name, "x", req.X, "y", req.Y)
}

func (w *World) handlePosition(ev Event) {
	_, m, err := wire.DecodeTyped[wire.PositionUpdate](ev.Payload)
	if err != nil {
		metrics.InvalidPayloads.Inc()
		return
	}

	// A position tick racing a disconnect is expected, not an error.
	pos, err := w.registry.UpdatePosition(ev.ConnID, m.Content.X, m.Content.Y)
	if err != nil {
		return
	}

	// Broadcast to all other players; clients cull by distance.
	moved := wire.ComposeTyped(wire.PlayerMoved, wire.MessageContent[wire.PlayerPosition]{Content: pos})
	for _, other := range w.registry.InWorldSessions(ev.ConnID) {
		other.Send(moved)
	}
}

func (w *World) handleChat(ev Event) {
	session, ok := w.registry.Get(ev.ConnID)
	if !ok || !session.InWorld() {
		return
	}

	_, m, err := wire.DecodeTyped[wire.ChatRequest](ev.Payload)
	if err != nil {
		metrics.InvalidPayloads.Inc()
		return
	}
	req := m.Content

	text := strings.TrimSpace(req.Text)
	if text == "" || utf8.RuneCountInString(text) > MaxChatTextLen {
		metrics.ChatDropped.WithLabelValues("bad_text").Inc()
		return
	}

	// A missing channel means local speech.
	name := strings.ToLower(req.Channel)
	if name == "" {
		name = ChannelSay.String()
	}
	channel, ok := ParseChannel(name)
	if !ok {
		metrics.ChatDropped.WithLabelValues("unknown_channel").Inc()
		return
	}

	payload := wire.ChatPayload{
		Sender:   session.Name,
		SenderID: session.CharacterID,
		Text:     text,
		Channel:  channel.String(),
		Color:    req.Color,
	}

	metrics.ChatMessages.WithLabelValues(channel.String()).Inc()

	switch channel {
	case ChannelSay, ChannelWhisper, ChannelYell, ChannelEmote, ChannelStory:
		radius, _ := channel.Radius()
		w.deliver(w.registry.InRange(ev.ConnID, radius), payload)

	case ChannelOOC:
		w.deliver(w.registry.InWorldSessions(ev.ConnID), payload)

	case ChannelFaction:
		if !model.CanSendFaction(session.Rank) {
			w.sendChatError(session, "rank_gate", "Only Banneret and above can use Faction chat.")
			return
		}
		if session.Allegiance == "" || session.Allegiance == model.AllegianceNone {
			w.sendChatError(session, "no_allegiance", "You have no faction allegiance.")
			return
		}
		// Any rank may read faction chat.
		var members []*Session
		for _, other := range w.registry.InWorldSessions(ev.ConnID) {
			if other.Allegiance == session.Allegiance {
				members = append(members, other)
			}
		}
		w.deliver(members, payload)

	case ChannelAdminWhisper:
		if !session.IsAdmin {
			w.sendChatError(session, "not_admin", "You do not have permission to use this channel.")
			return
		}
		if req.Target == "" {
			w.sendChatError(session, "no_target", "No whisper target provided.")
			return
		}
		target, found := w.registry.FindByName(req.Target)
		if !found {
			w.sendChatError(session, "target_offline", fmt.Sprintf("Player %q not online.", req.Target))
			return
		}
		payload.Target = req.Target
		target.Send(wire.ComposeTyped(wire.Chat, wire.MessageContent[wire.ChatPayload]{Content: payload}))

	case ChannelAnnounce:
		if !session.IsAdmin {
			w.sendChatError(session, "not_admin", "You do not have permission to use this channel.")
			return
		}
		w.deliver(w.registry.InWorldSessions(ev.ConnID), payload)
	}
}

func (w *World) deliver(recipients []*Session, payload wire.ChatPayload) {
	composed := wire.ComposeTyped(wire.Chat, wire.MessageContent[wire.ChatPayload]{Content: payload})
	for _, recipient := range recipients {
		recipient.Send(composed)
	}
}

func (w *World) sendChatError(session *Session, reason, message string) {
	metrics.ChatErrors.WithLabelValues(reason).Inc()
	session.Send(wire.ComposeTyped(wire.ChatError, wire.MessageContent[wire.ChatErrorPayload]{
		Content: wire.ChatErrorPayload{Error: message},
	}))
}

// BroadcastAnnouncement lets the admin moderation surface push a
// server-wide announcement without a backing session.
func (w *World) BroadcastAnnouncement(text string) {
	payload := wire.ChatPayload{
		Sender:  "SERVER",
		Text:    text,
		Channel: ChannelAnnounce.String(),
	}
	composed := wire.ComposeTyped(wire.Chat, wire.MessageContent[wire.ChatPayload]{Content: payload})

	w.registry.forEachSession(func(session *Session) bool {
		if session.InWorld() {
			session.Send(composed)
		}
		return true
	})
}
