package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guarzo/dotastats/common"
	"github.com/guarzo/dotastats/modules/stats"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := renderPage(s.heroes.Names(), s.accounts)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// htmlReply is the {"html": ...} envelope the front-end swaps into the page.
func (s *Server) htmlReply(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"html": html})
}

// handleCallFunction evaluates one aggregation and returns its table as an
// HTML fragment. The mode field selects per-enemy-hero stats ("Hero") or
// shared-history stats against another account ("Player").
func (s *Server) handleCallFunction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.htmlReply(w, "<b>Malformed request.</b>")
		return
	}

	accountID, err := strconv.ParseInt(r.FormValue("player_id"), 10, 64)
	if err != nil {
		s.htmlReply(w, "<b>Please provide a valid player ID.</b>")
		return
	}

	maxAge, ok := windows[r.FormValue("window")]
	if !ok {
		maxAge = stats.AllTime
	}

	// When the front-end supplies a request id it can poll /progress/{id}
	// while a cold scan runs.
	progressID := r.FormValue("request_id")
	if progressID == "" {
		progressID = RequestID(r.Context())
	}
	progress := func(completed, total int) {
		s.progress.update(progressID, completed, total)
	}
	defer s.progress.forget(progressID)

	ctx := r.Context()
	set, err := s.engine.NewMatchSet(ctx, accountID)
	if err != nil {
		s.htmlReply(w, s.errorHTML(err))
		return
	}

	var table Table
	switch r.FormValue("mode") {
	case "Hero":
		heroName := r.FormValue("hero_name")
		var heroID *int
		if heroName != "" {
			id, ok := s.heroes.HeroID(heroName)
			if !ok {
				s.htmlReply(w, "<b>Invalid hero name selected.</b>")
				return
			}
			heroID = &id
		} else {
			heroName = "All heroes"
		}

		rows, err := s.engine.PerEnemyHeroStats(ctx, set, heroID, maxAge, progress)
		if err != nil {
			s.htmlReply(w, s.errorHTML(err))
			return
		}
		if len(rows) == 0 {
			s.htmlReply(w, fmt.Sprintf("<b>No data available for %s.</b>", heroName))
			return
		}
		table = enemyHeroTable(s.tableTitle(ctx, accountID, heroName), rows)

	case "Player":
		otherID, err := strconv.ParseInt(r.FormValue("other_player_id"), 10, 64)
		if err != nil {
			s.htmlReply(w, "<b>Please provide a valid other player ID.</b>")
			return
		}

		rows, err := s.engine.PerPlayerStats(ctx, set, otherID, maxAge, progress)
		if err != nil {
			s.htmlReply(w, s.errorHTML(err))
			return
		}
		table = playerStatsTable(s.tableTitle(ctx, accountID, fmt.Sprintf("vs %d", otherID)), rows)

	default:
		s.htmlReply(w, "<b>Unknown mode.</b>")
		return
	}

	html, err := renderTable(table)
	if err != nil {
		s.htmlReply(w, "<b>Failed to render table.</b>")
		return
	}
	s.htmlReply(w, html)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	completed, total, ok := s.progress.get(id)
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown job"})
		return
	}
	json.NewEncoder(w).Encode(map[string]int{"completed": completed, "total": total})
}

// handleRequestParse forwards a re-parse trigger to the upstream.
func (s *Server) handleRequestParse(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	if err := s.client.RequestParse(r.Context(), matchID); err != nil {
		s.log.Error("parse request failed", "match", matchID, "error", err)
		http.Error(w, "upstream rejected parse request", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// tableTitle names a table after the player when the profile lookup
// succeeds, falling back to the raw account id.
func (s *Server) tableTitle(ctx context.Context, accountID int64, suffix string) string {
	name, err := s.players.PlayerName(ctx, accountID)
	if err != nil {
		name = strconv.FormatInt(accountID, 10)
	}
	return fmt.Sprintf("%s: %s", name, suffix)
}

// errorHTML maps failure classes to the distinct messages the UI shows:
// cancelled, upstream failure, or a generic error.
func (s *Server) errorHTML(err error) string {
	if errors.Is(err, stats.ErrCancelled) {
		return "<b>Cancelled.</b>"
	}
	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("<b>Upstream failure (status %d).</b>", httpErr.StatusCode)
	}
	return "<b>Something went wrong fetching data.</b>"
}
