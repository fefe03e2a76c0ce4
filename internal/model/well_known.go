package model

type WellKnown struct {
	Version string `json:"version"`

	Addr string `json:"consoleServerAddr"`
}

// TilePx is the size of a single world tile in pixels. All chat ranges
// are expressed as tile multiples of this value.
const TilePx = 32

// Ranks is the roleplay rank ladder, lowest to highest.
var Ranks = []string{
	RankAspirant,
	RankSworn,
	RankWarden,
	RankBanneret,
	RankJusticar,
}

const (
	RankAspirant = "Aspirant"
	RankSworn    = "Sworn"
	RankWarden   = "Warden"
	RankBanneret = "Banneret"
	RankJusticar = "Justicar"
)

// AllegianceNone marks a character without a faction. Characters keep
// this value until an admin assigns them to a faction.
const AllegianceNone = "None"

// CanSendFaction reports whether the given rank may send faction chat.
// Only the two highest ranks qualify; any rank may receive.
func CanSendFaction(rank string) bool {
	return rank == RankBanneret || rank == RankJusticar
}

// ValidRank reports whether the rank is part of the ladder.
func ValidRank(rank string) bool {
	for _, r := range Ranks {
		if r == rank {
			return true
		}
	}
	return false
}
