package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SpoilerLevel is how much plot or solution detail an answer may reveal.
// Valid levels are the four canonical values below.
type SpoilerLevel int

const (
	SpoilerNone  SpoilerLevel = 0
	SpoilerLight SpoilerLevel = 33
	SpoilerSome  SpoilerLevel = 66
	SpoilerFull  SpoilerLevel = 100
)

// DefaultSpoiler is used when nothing is configured
const DefaultSpoiler = SpoilerLight

// SpoilerLevels lists the canonical levels in ascending order. SnapSpoiler
// relies on this order for tie breaks.
var SpoilerLevels = []SpoilerLevel{SpoilerNone, SpoilerLight, SpoilerSome, SpoilerFull}

const unknownSpoilerLabel = "Unknown"

// SnapSpoiler clamps raw to [0,100] and returns the nearest canonical level.
// On an exact midpoint the lower level wins.
func SnapSpoiler(raw float64) SpoilerLevel {
	if math.IsNaN(raw) {
		return SpoilerNone
	}
	v := math.Min(100, math.Max(0, raw))

	best := SpoilerLevels[0]
	bestDist := math.Abs(v - float64(best))
	for _, level := range SpoilerLevels[1:] {
		if d := math.Abs(v - float64(level)); d < bestDist {
			best, bestDist = level, d
		}
	}
	return best
}

// Label returns the display name of a canonical level
func (l SpoilerLevel) Label() string {
	switch l {
	case SpoilerNone:
		return "No spoilers"
	case SpoilerLight:
		return "Light hints"
	case SpoilerSome:
		return "Some spoilers"
	case SpoilerFull:
		return "Full spoilers"
	default:
		return unknownSpoilerLabel
	}
}

func (l SpoilerLevel) String() string {
	return fmt.Sprintf("%d (%s)", int(l), l.Label())
}

// ParseSpoiler accepts a number (snapped) or one of the keywords
// none, light, some, full.
func ParseSpoiler(s string) (SpoilerLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none", "off":
		return SpoilerNone, nil
	case "light", "hints":
		return SpoilerLight, nil
	case "some", "moderate":
		return SpoilerSome, nil
	case "full", "all":
		return SpoilerFull, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return SpoilerNone, fmt.Errorf("invalid spoiler level %q (use 0-100 or none/light/some/full)", s)
	}
	return SnapSpoiler(f), nil
}
