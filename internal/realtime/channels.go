package realtime

import "github.com/ViewsFromSaturn/Project-Tactics/internal/model"

// Channel is the closed set of chat channels. Adding a channel means
// adding a constant here and a case to the router, there is no dynamic
// dispatch on strings past parsing.
type Channel uint8

const (
	ChannelSay Channel = iota + 1
	ChannelWhisper
	ChannelYell
	ChannelEmote
	ChannelStory
	ChannelOOC
	ChannelFaction
	ChannelAdminWhisper
	ChannelAnnounce
)

// MaxChatTextLen is the longest accepted chat text, measured after
// trimming. Longer messages are dropped without a reply.
const MaxChatTextLen = 2000

var channelNames = map[string]Channel{
	"say":           ChannelSay,
	"whisper":       ChannelWhisper,
	"yell":          ChannelYell,
	"emote":         ChannelEmote,
	"story":         ChannelStory,
	"ooc":           ChannelOOC,
	"faction":       ChannelFaction,
	"admin_whisper": ChannelAdminWhisper,
	"announce":      ChannelAnnounce,
}

// ParseChannel maps a wire channel name to its kind. Unknown names are
// dropped by the router.
func ParseChannel(name string) (Channel, bool) {
	c, ok := channelNames[name]
	return c, ok
}

func (c Channel) String() string {
	switch c {
	case ChannelSay:
		return "say"
	case ChannelWhisper:
		return "whisper"
	case ChannelYell:
		return "yell"
	case ChannelEmote:
		return "emote"
	case ChannelStory:
		return "story"
	case ChannelOOC:
		return "ooc"
	case ChannelFaction:
		return "faction"
	case ChannelAdminWhisper:
		return "admin_whisper"
	case ChannelAnnounce:
		return "announce"
	default:
		return "unknown"
	}
}

// Radius returns the hearing range in pixels for proximity channels.
// Unbounded channels report false.
func (c Channel) Radius() (float64, bool) {
	switch c {
	case ChannelSay:
		return 8 * model.TilePx, true
	case ChannelWhisper:
		return 2 * model.TilePx, true
	case ChannelYell:
		return 12 * model.TilePx, true
	case ChannelEmote:
		return 10 * model.TilePx, true
	case ChannelStory:
		return 10 * model.TilePx, true
	default:
		return 0, false
	}
}
