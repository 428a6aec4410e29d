package common

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	ListenAddr string `env:"DOTASTATS_LISTEN" envDefault:"127.0.0.1:5000"`
	APIBaseURL string `env:"DOTASTATS_API_URL" envDefault:"https://api.opendota.com/api"`
	UserAgent  string `env:"DOTASTATS_USER_AGENT" envDefault:"dotastats"`

	CacheFile string `env:"DOTASTATS_CACHE_FILE" envDefault:"dota2/cache.json"`
	// Freshness is how long a cached match detail stays valid for
	// non-permissive reads.
	Freshness       time.Duration `env:"DOTASTATS_FRESHNESS" envDefault:"720h"`
	ThrottleBackoff time.Duration `env:"DOTASTATS_THROTTLE_BACKOFF" envDefault:"10s"`

	OpenBrowser bool `env:"DOTASTATS_OPEN_BROWSER" envDefault:"true"`

	// AccountIDs are the accounts offered as defaults in the UI.
	AccountIDs []int64 `env:"DOTASTATS_ACCOUNT_IDS" envDefault:"302004172,129213402,138951493,285975878"`
}

// LoadConfig reads a .env file if one is present, then parses the
// environment. A missing .env file is not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
