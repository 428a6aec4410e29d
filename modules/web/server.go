package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guarzo/dotastats/modules/opendota"
	"github.com/guarzo/dotastats/modules/stats"
)

// Time windows offered by the UI, mirroring the analysis tool's presets.
const (
	windowYear     = 365 * 24 * time.Hour
	window6Months  = windowYear / 2
	window3Months  = windowYear / 4
	windowOneMonth = window6Months / 3
)

var windows = map[string]time.Duration{
	"all":  stats.AllTime,
	"year": windowYear,
	"6m":   window6Months,
	"3m":   window3Months,
	"1m":   windowOneMonth,
}

// Server is the browser-facing surface. It owns no domain state of its own;
// everything is injected so tests can run it against fakes.
type Server struct {
	engine   *stats.Engine
	heroes   *opendota.HeroDirectory
	players  *opendota.PlayerDirectory
	client   opendota.Client
	accounts []int64
	log      *slog.Logger
	progress *progressTracker
}

// NewServer wires the UI over the aggregation engine and name directories.
func NewServer(engine *stats.Engine, heroes *opendota.HeroDirectory, players *opendota.PlayerDirectory, client opendota.Client, accounts []int64, log *slog.Logger) *Server {
	return &Server{
		engine:   engine,
		heroes:   heroes,
		players:  players,
		client:   client,
		accounts: accounts,
		log:      log,
		progress: newProgressTracker(),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return instrument(s.log, next)
	})

	r.Get("/", s.handleIndex)
	r.Post("/call_function", s.handleCallFunction)
	r.Get("/progress/{id}", s.handleProgress)
	r.Post("/api/request/{matchID}", s.handleRequestParse)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
