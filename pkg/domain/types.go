package domain

import "strings"

// BlendMode defines how simultaneous layer weights combine.
type BlendMode string

const (
	BlendOverride BlendMode = "override" // running max
	BlendAdditive BlendMode = "additive" // running sum
	BlendMultiply BlendMode = "multiply" // running product
)

// ParseBlendMode maps a free-form mode name to a BlendMode.
// Unknown names fall back to BlendOverride.
func ParseBlendMode(s string) BlendMode {
	switch BlendMode(strings.ToLower(strings.TrimSpace(s))) {
	case BlendAdditive:
		return BlendAdditive
	case BlendMultiply:
		return BlendMultiply
	default:
		return BlendOverride
	}
}

// Region partitions the character's controllable surface. Motions are
// mutually exclusive per region.
type Region string

const (
	RegionFull  Region = "full"
	RegionHead  Region = "head"
	RegionFace  Region = "face"
	RegionArms  Region = "arms"
	RegionTorso Region = "torso"
	RegionLegs  Region = "legs"
)

// Regions lists every region in a stable order.
func Regions() []Region {
	return []Region{RegionFull, RegionHead, RegionFace, RegionArms, RegionTorso, RegionLegs}
}

// ParseRegion maps a free-form region name to a Region.
// Unknown names fall back to RegionFull.
func ParseRegion(s string) Region {
	switch Region(strings.ToLower(strings.TrimSpace(s))) {
	case RegionHead:
		return RegionHead
	case RegionFace:
		return RegionFace
	case RegionArms:
		return RegionArms
	case RegionTorso:
		return RegionTorso
	case RegionLegs:
		return RegionLegs
	default:
		return RegionFull
	}
}

// regionHints maps group-name substrings to regions for groups the catalog
// does not know. Checked in order; first hit wins.
var regionHints = []struct {
	substr string
	region Region
}{
	{"wave", RegionArms},
	{"shou", RegionArms}, // zuoshou/youshou style left/right hand groups
	{"hand", RegionArms},
	{"arm", RegionArms},
	{"point", RegionArms},
	{"nod", RegionHead},
	{"shake", RegionHead},
	{"head", RegionHead},
	{"tilt", RegionHead},
	{"blink", RegionFace},
	{"wink", RegionFace},
	{"mouth", RegionFace},
	{"bow", RegionTorso},
	{"lean", RegionTorso},
	{"step", RegionLegs},
	{"kick", RegionLegs},
}

// GuessRegion derives a region from a motion-group name. The mapping is
// total: names with no recognizable hint land on RegionFull.
func GuessRegion(group string) Region {
	g := strings.ToLower(group)
	for _, h := range regionHints {
		if strings.Contains(g, h.substr) {
			return h.region
		}
	}
	return RegionFull
}

// Rank orders motion requests for arbitration. Higher ranks displace lower
// ones; an occupant with a strictly higher rank rejects the request.
type Rank int

const (
	RankIdle Rank = iota
	RankGesture
	RankReaction
	RankEmotion
	RankOverride
)

var rankNames = map[Rank]string{
	RankIdle:     "idle",
	RankGesture:  "gesture",
	RankReaction: "reaction",
	RankEmotion:  "emotion",
	RankOverride: "override",
}

func (r Rank) String() string {
	if n, ok := rankNames[r.Clamp()]; ok {
		return n
	}
	return "gesture"
}

// Clamp bounds a rank to the valid range.
func (r Rank) Clamp() Rank {
	if r < RankIdle {
		return RankIdle
	}
	if r > RankOverride {
		return RankOverride
	}
	return r
}

// ParseRank maps a free-form rank name to a Rank.
// Unknown names fall back to RankGesture.
func ParseRank(s string) Rank {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle":
		return RankIdle
	case "gesture":
		return RankGesture
	case "reaction":
		return RankReaction
	case "emotion":
		return RankEmotion
	case "override":
		return RankOverride
	default:
		return RankGesture
	}
}

// Clamp01 bounds a weight or ratio to [0, 1]. NaN collapses to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
