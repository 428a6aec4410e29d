package stats

import (
	"context"
	"time"

	"github.com/guarzo/dotastats/common/model"
)

// API is the slice of the upstream client the stats layer needs: the match
// list for an account and the detail payload for one match.
type API interface {
	PlayerMatches(ctx context.Context, accountID int64) ([]model.MatchSummary, error)
	MatchDetails(ctx context.Context, matchID int64) (*model.MatchDetail, error)
}

// Participant is one player inside a match detail, resolved at the parse
// boundary. AccountID is nil for anonymized players; GoldPerMin is nil when
// the upstream has not parsed the match.
type Participant struct {
	AccountID  *int64
	Team       model.Team
	HeroID     int
	GoldPerMin *int
}

func newParticipant(p model.MatchPlayer) Participant {
	return Participant{
		AccountID:  p.AccountID,
		Team:       model.TeamFromNumber(p.TeamNumber),
		HeroID:     p.HeroID,
		GoldPerMin: p.GoldPerMin,
	}
}

// Match wraps one match summary plus its lazily resolved participants.
// The summary alone answers identity, timing and outcome questions; the
// participant list costs a second fetch and is loaded at most once.
type Match struct {
	summary model.MatchSummary
	api     API

	loaded       bool
	participants []Participant
}

func newMatch(summary model.MatchSummary, api API) *Match {
	return &Match{summary: summary, api: api}
}

// ID is the match identity.
func (m *Match) ID() int64 { return m.summary.MatchID }

// StartTime is when the match began.
func (m *Match) StartTime() time.Time { return time.Unix(m.summary.StartTime, 0) }

// HeroID is the hero the owning account played in this match.
func (m *Match) HeroID() int { return m.summary.HeroID }

// Team is the side the owning account played on.
func (m *Match) Team() model.Team { return model.TeamFromSlot(m.summary.PlayerSlot) }

// Winner is the side that won the match.
func (m *Match) Winner() model.Team {
	if m.summary.RadiantWin {
		return model.TeamRadiant
	}
	return model.TeamDire
}

// Won reports whether the owning account's side won.
func (m *Match) Won() bool { return m.Winner() == m.Team() }

// Participants resolves the full participant list, fetching the match
// detail on first use. A detail payload without a players array yields an
// empty list, not an error.
func (m *Match) Participants(ctx context.Context) ([]Participant, error) {
	if m.loaded {
		return m.participants, nil
	}

	detail, err := m.api.MatchDetails(ctx, m.ID())
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, len(detail.Players))
	for _, p := range detail.Players {
		participants = append(participants, newParticipant(p))
	}
	m.participants = participants
	m.loaded = true
	return m.participants, nil
}

// Participant returns the participant with the given account id, or nil if
// no participant carries it (anonymized players never match).
func (m *Match) Participant(ctx context.Context, accountID int64) (*Participant, error) {
	participants, err := m.Participants(ctx)
	if err != nil {
		return nil, err
	}
	for i := range participants {
		if participants[i].AccountID != nil && *participants[i].AccountID == accountID {
			return &participants[i], nil
		}
	}
	return nil, nil
}
