package wire

type EventType uint

const (
	_ EventType = iota
	Welcome
	JoinWorld
	PlayerJoined
	PlayerLeft
	Position
	PlayerMoved
	Chat
	ChatError
)

func (e EventType) String() string {
	switch e {
	case Welcome:
		return "Welcome"
	case JoinWorld:
		return "JoinWorld"
	case PlayerJoined:
		return "PlayerJoined"
	case PlayerLeft:
		return "PlayerLeft"
	case Position:
		return "Position"
	case PlayerMoved:
		return "PlayerMoved"
	case Chat:
		return "Chat"
	case ChatError:
		return "ChatError"
	default:
		return "Unknown"
	}
}
