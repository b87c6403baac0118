package matching

import (
	"cmp"
	"slices"
)

// DefaultMinScore is the threshold applied when a request does not set one.
const DefaultMinScore = 60.0

// Result is one ranked candidate. It is computed per request and never stored.
type Result struct {
	CandidateID  uint64
	Name         string
	City         string
	Phone        string
	Level        *int
	Availability []string
	Score        float64
}

// FindMatches scores every candidate against user and returns those at or
// above minScore, best first.
//
// The user's own id is skipped. Equal scores are ordered by candidate id
// ascending so results do not depend on pool order.
func FindMatches(user Profile, pool []Profile, minScore float64, w Weights) []Result {
	matches := make([]Result, 0, len(pool))

	for _, c := range pool {
		if c.ID == user.ID {
			continue
		}

		score, ok := Score(user, c, w)
		if !ok || score < minScore {
			continue
		}

		matches = append(matches, project(c, score))
	}

	slices.SortStableFunc(matches, func(a, b Result) int {
		if byScore := cmp.Compare(b.Score, a.Score); byScore != 0 {
			return byScore
		}
		return cmp.Compare(a.CandidateID, b.CandidateID)
	})
	return matches
}

func project(c Profile, score float64) Result {
	availability := make([]string, len(c.Availability))
	copy(availability, c.Availability)

	var level *int
	if c.Level != nil {
		l := *c.Level
		level = &l
	}

	return Result{
		CandidateID:  c.ID,
		Name:         c.DisplayName(),
		City:         c.City,
		Phone:        c.Phone,
		Level:        level,
		Availability: availability,
		Score:        score,
	}
}
