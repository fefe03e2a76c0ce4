package wire

// Message is the untyped event envelope.
type Message struct {
	Type    EventType `json:"type"`
	Content any       `json:"content"`
}

type MessageContent[T any] struct {
	Type    EventType `json:"type"`
	Content T         `json:"content"`
}

// JoinWorldRequest binds a character to the session and places it in
// the world at the given coordinates.
type JoinWorldRequest struct {
	CharacterID string  `json:"character_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// PlayerState describes an in-world player. Sent once per existing
// player to a new arrival, and broadcast when somebody joins.
type PlayerState struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rank       string  `json:"rank"`
	Allegiance string  `json:"allegiance"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// PlayerRef carries only the character identity, used for leave events.
type PlayerRef struct {
	ID string `json:"id"`
}

// PositionUpdate is the inbound position tick.
type PositionUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerPosition is the outbound movement broadcast.
type PlayerPosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// ChatRequest is an inbound chat event. Target is only meaningful for
// admin whispers, Color is an optional roleplay color tag.
type ChatRequest struct {
	Channel string `json:"type"`
	Text    string `json:"text"`
	Target  string `json:"target,omitempty"`
	Color   string `json:"color,omitempty"`
}

// ChatPayload is the message delivered to recipients.
type ChatPayload struct {
	Sender   string `json:"sender"`
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
	Channel  string `json:"type"`
	Color    string `json:"color,omitempty"`
	Target   string `json:"target,omitempty"`
}

// ChatErrorPayload is sent only to the offending sender.
type ChatErrorPayload struct {
	Error string `json:"error"`
}
