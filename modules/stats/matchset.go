package stats

import (
	"context"
	"time"
)

// AllTime is the maxAge sentinel meaning no time-window filtering.
const AllTime time.Duration = 0

// MatchSet owns the ordered match list for one account. The list is fetched
// eagerly at construction, always from the network: match lists are the one
// resource where serving a stale copy is unacceptable. The set is never
// mutated afterwards.
type MatchSet struct {
	accountID int64
	matches   []*Match
}

// NewMatchSet fetches the match list for accountID and wraps each summary.
func NewMatchSet(ctx context.Context, api API, accountID int64) (*MatchSet, error) {
	summaries, err := api.PlayerMatches(ctx, accountID)
	if err != nil {
		return nil, err
	}

	matches := make([]*Match, 0, len(summaries))
	for _, s := range summaries {
		matches = append(matches, newMatch(s, api))
	}
	return &MatchSet{accountID: accountID, matches: matches}, nil
}

// AccountID is the account this set belongs to.
func (s *MatchSet) AccountID() int64 { return s.accountID }

// Matches returns the full ordered match list.
func (s *MatchSet) Matches() []*Match { return s.matches }

// Filter selects matches by hero and age. A nil heroID matches every hero;
// maxAge <= 0 means all time. Filtering is a pure projection over the
// summaries and never touches the network.
func (s *MatchSet) Filter(heroID *int, maxAge time.Duration) []*Match {
	now := time.Now()
	out := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		if heroID != nil && m.HeroID() != *heroID {
			continue
		}
		if maxAge > AllTime && now.Sub(m.StartTime()) > maxAge {
			continue
		}
		out = append(out, m)
	}
	return out
}

// byID builds a match-id lookup for join operations.
func (s *MatchSet) byID() map[int64]*Match {
	idx := make(map[int64]*Match, len(s.matches))
	for _, m := range s.matches {
		idx[m.ID()] = m
	}
	return idx
}
