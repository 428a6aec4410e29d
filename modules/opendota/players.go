package opendota

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// PlayerDirectory resolves account ids to display names, memoizing each
// answer in memory for the life of the process. Profile lookups are the
// only collaborator that hits the network on the render path, so the
// memoization keeps repeated table renders cheap.
type PlayerDirectory struct {
	client Client
	names  *gocache.Cache
}

// NewPlayerDirectory constructs a PlayerDirectory over the given client.
func NewPlayerDirectory(c Client) *PlayerDirectory {
	return &PlayerDirectory{
		client: c,
		names:  gocache.New(gocache.NoExpiration, 0),
	}
}

// PlayerName returns the display name for accountID, fetching the profile
// on first use. Accounts without a persona name get a synthetic label.
func (d *PlayerDirectory) PlayerName(ctx context.Context, accountID int64) (string, error) {
	key := fmt.Sprintf("%d", accountID)
	if cached, found := d.names.Get(key); found {
		return cached.(string), nil
	}

	profile, err := d.client.PlayerProfile(ctx, accountID)
	if err != nil {
		return "", err
	}

	name := profile.Profile.Personaname
	if name == "" {
		name = fmt.Sprintf("Player %d", accountID)
	}
	d.names.Set(key, name, gocache.NoExpiration)
	return name, nil
}
