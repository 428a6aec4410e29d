package model

import (
	"encoding/json"
)

// For JSON handling if you want a central place to do it
func UnmarshalJSON(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// Team identifies one of the two sides of a match.
type Team int

const (
	TeamRadiant Team = 0
	TeamDire    Team = 1
)

func (t Team) String() string {
	if t == TeamRadiant {
		return "Radiant"
	}
	return "Dire"
}

// TeamFromSlot maps the upstream player_slot encoding to a side.
// Slots 0-127 are Radiant, 128-255 are Dire.
func TeamFromSlot(slot int) Team {
	if slot < 128 {
		return TeamRadiant
	}
	return TeamDire
}

// TeamFromNumber maps the upstream team_number field (0 or 1) to a side.
func TeamFromNumber(n int) Team {
	if n == 0 {
		return TeamRadiant
	}
	return TeamDire
}

// MatchSummary is one element of GET /players/{accountId}/matches.
type MatchSummary struct {
	MatchID    int64 `json:"match_id"`
	StartTime  int64 `json:"start_time"`
	HeroID     int   `json:"hero_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin bool  `json:"radiant_win"`
}

// MatchDetail is the payload of GET /matches/{matchId}. Only the players
// array is consumed; unparsed matches may omit it entirely.
type MatchDetail struct {
	MatchID int64         `json:"match_id"`
	Players []MatchPlayer `json:"players"`
}

// MatchPlayer is one participant inside a match detail. AccountID is
// absent for anonymized players and GoldPerMin is absent for unparsed
// matches, so both stay pointers until the parse boundary resolves them.
type MatchPlayer struct {
	AccountID  *int64 `json:"account_id"`
	TeamNumber int    `json:"team_number"`
	HeroID     int    `json:"hero_id"`
	GoldPerMin *int   `json:"gold_per_min"`
}

// HeroStat is one element of GET /heroStats.
type HeroStat struct {
	ID            int    `json:"id"`
	LocalizedName string `json:"localized_name"`
}

// PlayerProfile is the payload of GET /players/{accountId}.
type PlayerProfile struct {
	Profile struct {
		AccountID   int64  `json:"account_id"`
		Personaname string `json:"personaname"`
	} `json:"profile"`
}
