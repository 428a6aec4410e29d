package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// cancelCheckEvery is how many records a scan processes between context
// checks. Checking every record would be wasted work next to the cost of a
// detail fetch; checking too rarely makes cancellation sluggish.
const cancelCheckEvery = 10

// ErrCancelled reports that a scan observed a cancelled context and
// abandoned its work. Partial results are discarded, never returned.
var ErrCancelled = errors.New("aggregation cancelled")

// ProgressFunc receives (completed, total) once per processed record.
// Calls are strictly increasing in completed and the final call always
// reports completed == total.
type ProgressFunc func(completed, total int)

// HeroNamer resolves hero ids to display names.
type HeroNamer interface {
	HeroName(id int) string
}

// Engine evaluates relational statistics over one account's MatchSet.
// Scans are serial: each detail fetch is awaited before the next record,
// trading cold-run speed for cache hits on every later run.
type Engine struct {
	api    API
	heroes HeroNamer
	log    *slog.Logger
}

// NewEngine constructs an Engine. The hero namer is injected rather than
// looked up globally so tests can supply a fixed table.
func NewEngine(api API, heroes HeroNamer, log *slog.Logger) *Engine {
	return &Engine{api: api, heroes: heroes, log: log}
}

// NewMatchSet builds the MatchSet for an account using the engine's API.
func (e *Engine) NewMatchSet(ctx context.Context, accountID int64) (*MatchSet, error) {
	return NewMatchSet(ctx, e.api, accountID)
}

// EnemyHeroRow is one row of PerEnemyHeroStats.
type EnemyHeroRow struct {
	HeroID   int
	HeroName string
	Matches  int
	Wins     int
	WinRate  float64
	AvgGPM   float64
}

// MatchPair joins one of self's matches with the other account's record of
// the same match.
type MatchPair struct {
	Mine   *Match
	Theirs *Match
}

// PlayerStatsRow is one row of PerPlayerStats.
type PlayerStatsRow struct {
	Role     string
	Matches  int
	Wins     int
	WinRate  float64
	MatchIDs []int64
}

// Role labels for PerPlayerStats rows.
const (
	RoleTeammate = "Teammate"
	RoleOpponent = "Opponent"
)

type enemyAccum struct {
	matches int
	wins    int
	gpms    []int
}

// PerEnemyHeroStats aggregates self's performance against every enemy hero
// across the filtered matches. Matches where self cannot be identified, or
// has no recorded gold per minute, are silently excluded; that is how the
// upstream represents anonymized or unparsed data, not an error.
func (e *Engine) PerEnemyHeroStats(ctx context.Context, set *MatchSet, heroID *int, maxAge time.Duration, progress ProgressFunc) ([]EnemyHeroRow, error) {
	matches := set.Filter(heroID, maxAge)
	total := len(matches)
	accum := make(map[int]*enemyAccum)

	for i, m := range matches {
		if i%cancelCheckEvery == 0 && ctx.Err() != nil {
			return nil, ErrCancelled
		}

		self, err := m.Participant(ctx, set.AccountID())
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", m.ID(), err)
		}
		if self == nil || self.GoldPerMin == nil {
			reportProgress(progress, i+1, total)
			continue
		}

		won := m.Winner() == self.Team
		participants, err := m.Participants(ctx)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", m.ID(), err)
		}
		for _, p := range participants {
			if p.Team == self.Team {
				continue
			}
			a := accum[p.HeroID]
			if a == nil {
				a = &enemyAccum{}
				accum[p.HeroID] = a
			}
			a.matches++
			if won {
				a.wins++
			}
			a.gpms = append(a.gpms, *self.GoldPerMin)
		}
		reportProgress(progress, i+1, total)
	}

	rows := make([]EnemyHeroRow, 0, len(accum))
	for id, a := range accum {
		rows = append(rows, EnemyHeroRow{
			HeroID:   id,
			HeroName: e.heroes.HeroName(id),
			Matches:  a.matches,
			Wins:     a.wins,
			WinRate:  round2(rate(a.wins, a.matches)),
			AvgGPM:   round2(mean(a.gpms)),
		})
	}
	// Deterministic base order before the stable sort, so ties keep a
	// reproducible arrangement.
	sort.Slice(rows, func(i, j int) bool { return rows[i].HeroID < rows[j].HeroID })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Matches > rows[j].Matches })
	return rows, nil
}

// PlayTogether finds the matches self shares with another account. With
// sameTeam true it returns the matches where both played on one side; with
// false, the matches where they faced each other.
func (e *Engine) PlayTogether(ctx context.Context, set *MatchSet, otherAccountID int64, sameTeam bool, progress ProgressFunc) ([]MatchPair, error) {
	other, err := NewMatchSet(ctx, e.api, otherAccountID)
	if err != nil {
		return nil, err
	}
	return e.pairScan(ctx, set.Matches(), other, sameTeam, progress)
}

// pairScan joins mine against the other set's match-id lookup. Team
// equality comes from each side's own summary, so no detail fetches happen
// here.
func (e *Engine) pairScan(ctx context.Context, mine []*Match, other *MatchSet, sameTeam bool, progress ProgressFunc) ([]MatchPair, error) {
	idx := other.byID()
	total := len(mine)
	var pairs []MatchPair

	for i, m := range mine {
		if i%cancelCheckEvery == 0 && ctx.Err() != nil {
			return nil, ErrCancelled
		}
		if theirs, ok := idx[m.ID()]; ok {
			if (m.Team() == theirs.Team()) == sameTeam {
				pairs = append(pairs, MatchPair{Mine: m, Theirs: theirs})
			}
		}
		reportProgress(progress, i+1, total)
	}
	return pairs, nil
}

// PerPlayerStats summarizes self's shared history with another account as
// one Teammate row and one Opponent row. Both rows are always present, even
// with zero shared matches.
func (e *Engine) PerPlayerStats(ctx context.Context, set *MatchSet, otherAccountID int64, maxAge time.Duration, progress ProgressFunc) ([]PlayerStatsRow, error) {
	other, err := NewMatchSet(ctx, e.api, otherAccountID)
	if err != nil {
		return nil, err
	}

	mine := set.Filter(nil, maxAge)
	total := 2 * len(mine)

	rows := make([]PlayerStatsRow, 0, 2)
	for _, role := range []struct {
		name     string
		sameTeam bool
		offset   int
	}{
		{RoleTeammate, true, 0},
		{RoleOpponent, false, len(mine)},
	} {
		scanProgress := offsetProgress(progress, role.offset, total)
		pairs, err := e.pairScan(ctx, mine, other, role.sameTeam, scanProgress)
		if err != nil {
			return nil, err
		}

		row := PlayerStatsRow{Role: role.name, Matches: len(pairs), MatchIDs: make([]int64, 0, len(pairs))}
		for _, p := range pairs {
			if p.Mine.Won() {
				row.Wins++
			}
			row.MatchIDs = append(row.MatchIDs, p.Mine.ID())
		}
		row.WinRate = round2(rate(row.Wins, row.Matches))
		rows = append(rows, row)
	}
	return rows, nil
}

func reportProgress(progress ProgressFunc, completed, total int) {
	if progress != nil {
		progress(completed, total)
	}
}

// offsetProgress shifts a scan's progress into a larger multi-scan range.
func offsetProgress(progress ProgressFunc, offset, total int) ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(completed, _ int) {
		progress(offset+completed, total)
	}
}

// rate is wins/count as a percentage, with the zero-count case defined as 0.
func rate(wins, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(wins) / float64(count) * 100
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
