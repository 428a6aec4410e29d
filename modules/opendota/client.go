package opendota

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/guarzo/dotastats/common"
	"github.com/guarzo/dotastats/common/model"
	"github.com/guarzo/dotastats/modules/cache"
)

// Client is the typed surface over the OpenDota API. Read endpoints go
// through the response cache; the parse trigger and profile lookups do not.
type Client interface {
	PlayerMatches(ctx context.Context, accountID int64) ([]model.MatchSummary, error)
	MatchDetails(ctx context.Context, matchID int64) (*model.MatchDetail, error)
	HeroStats(ctx context.Context) ([]model.HeroStat, error)
	PlayerProfile(ctx context.Context, accountID int64) (*model.PlayerProfile, error)
	RequestParse(ctx context.Context, matchID int64) error
}

type client struct {
	baseURL string
	cache   *cache.ResponseCache
	http    common.HttpClient
	log     *slog.Logger
}

// NewClient constructs a Client. The baseURL is typically
// "https://api.opendota.com/api".
func NewClient(baseURL string, rc *cache.ResponseCache, hc common.HttpClient, log *slog.Logger) Client {
	return &client{
		baseURL: baseURL,
		cache:   rc,
		http:    hc,
		log:     log,
	}
}

// PlayerMatches fetches the account's full match list. The list always
// comes from the network, and the cache is checkpointed immediately so the
// fetch survives a crash.
func (c *client) PlayerMatches(ctx context.Context, accountID int64) ([]model.MatchSummary, error) {
	url := fmt.Sprintf("%s/players/%d/matches", c.baseURL, accountID)
	data, err := c.cache.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Flush(); err != nil {
		c.log.Error("checkpoint flush failed", "error", err)
	}

	var matches []model.MatchSummary
	if err := model.UnmarshalJSON(data, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode match list: %w", err)
	}
	return matches, nil
}

// MatchDetails fetches one match's detail payload, served from cache while
// the entry is inside the freshness window.
func (c *client) MatchDetails(ctx context.Context, matchID int64) (*model.MatchDetail, error) {
	url := fmt.Sprintf("%s/matches/%d", c.baseURL, matchID)
	data, err := c.cache.Get(ctx, url, false)
	if err != nil {
		return nil, err
	}

	var detail model.MatchDetail
	if err := model.UnmarshalJSON(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode match %d: %w", matchID, err)
	}
	return &detail, nil
}

// HeroStats fetches the hero list. Staleness is fine here; hero names
// change once a year at most.
func (c *client) HeroStats(ctx context.Context) ([]model.HeroStat, error) {
	url := fmt.Sprintf("%s/heroStats", c.baseURL)
	data, err := c.cache.Get(ctx, url, true)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Flush(); err != nil {
		c.log.Error("checkpoint flush failed", "error", err)
	}

	var heroes []model.HeroStat
	if err := model.UnmarshalJSON(data, &heroes); err != nil {
		return nil, fmt.Errorf("failed to decode hero stats: %w", err)
	}
	return heroes, nil
}

// PlayerProfile fetches an account's profile. Profiles are memoized in
// memory by PlayerDirectory rather than persisted, so this bypasses the
// response cache.
func (c *client) PlayerProfile(ctx context.Context, accountID int64) (*model.PlayerProfile, error) {
	url := fmt.Sprintf("%s/players/%d", c.baseURL, accountID)
	data, err := c.http.GetWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	var profile model.PlayerProfile
	if err := model.UnmarshalJSON(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile %d: %w", accountID, err)
	}
	return &profile, nil
}

// RequestParse asks the upstream to (re)parse a match. Fire and forget:
// the outcome is not cached and nothing retries a failure.
func (c *client) RequestParse(ctx context.Context, matchID int64) error {
	url := fmt.Sprintf("%s/request/%d", c.baseURL, matchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("parse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &common.HTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}
