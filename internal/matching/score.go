// Package matching scores running partners and ranks candidate pools.
//
// Everything here is pure: no I/O, no shared state. The same inputs always
// produce the same output.
package matching

import (
	"math"
	"strings"
)

// Availability slot tokens. Anything else is ignored by the scorer.
const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
)

// Level similarities. A gap of two or more levels never matches.
const (
	sameLevelSimilarity     = 1.00
	adjacentLevelSimilarity = 0.40
	maxLevelGap             = 1
)

// Profile is the subset of a runner profile the scorer needs.
//
// Name precedence for display is FullName, then Nickname, then "".
// A nil Level is scored as level 0.
type Profile struct {
	ID           uint64
	FullName     string
	Nickname     string
	City         string
	Phone        string
	Level        *int
	Availability []string
}

// DisplayName returns the first non-empty name field.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Nickname
}

// Score computes the compatibility between user and candidate as a
// percentage with two decimals in (0, 100].
//
// ok is false when a hard filter rejects the pair: different city, no
// overlapping availability, or a level gap of two or more. Rejected pairs
// are not scored as 0; they are excluded.
func Score(user, candidate Profile, w Weights) (score float64, ok bool) {
	if !SameCity(user.City, candidate.City) {
		return 0, false
	}

	f1 := AvailabilityF1(user.Availability, candidate.Availability)
	if f1 <= 0 {
		return 0, false
	}

	levelSim, ok := LevelSimilarity(user.Level, candidate.Level)
	if !ok {
		return 0, false
	}

	n := NormalizeWeights(w)
	const citySim = 1.0 // city already passed the hard filter

	composite := n.Time*f1 + n.Level*levelSim + n.City*citySim
	return math.Round(composite*10000) / 100, true
}

// SameCity compares two cities case-insensitively after trimming.
// Two empty cities are considered equal.
func SameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// AvailabilityF1 is the harmonic mean of precision |A∩B|/|B| and recall
// |A∩B|/|A|, where A is the user's slot set and B the candidate's.
// It is 0 when either set is empty or they do not intersect.
func AvailabilityF1(user, candidate []string) float64 {
	a := SlotSet(user)
	b := SlotSet(candidate)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for slot := range a {
		if _, found := b[slot]; found {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}

	precision := float64(inter) / float64(len(b))
	recall := float64(inter) / float64(len(a))
	return 2 * precision * recall / (precision + recall)
}

// SlotSet normalizes a raw availability list into a set of known slot
// tokens. Unknown tokens are dropped.
func SlotSet(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		switch token := strings.TrimSpace(s); token {
		case SlotMorning, SlotAfternoon, SlotEvening:
			set[token] = struct{}{}
		}
	}
	return set
}

// LevelSimilarity returns 1.0 for equal levels and 0.4 for adjacent ones.
// ok is false for a gap of two or more.
func LevelSimilarity(a, b *int) (sim float64, ok bool) {
	diff := levelOf(a) - levelOf(b)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff > maxLevelGap:
		return 0, false
	case diff == maxLevelGap:
		return adjacentLevelSimilarity, true
	default:
		return sameLevelSimilarity, true
	}
}

func levelOf(l *int) int {
	if l == nil {
		return 0
	}
	return *l
}
