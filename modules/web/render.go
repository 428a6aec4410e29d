package web

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/guarzo/dotastats/modules/stats"
)

// Table is the generic tabular shape every aggregation renders into.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

var tableTmpl = template.Must(template.New("table").Parse(`<h3>{{.Title}}</h3>
<table class="display">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>`))

// renderTable produces the HTML fragment the UI swaps into the page.
func renderTable(t Table) (string, error) {
	var b strings.Builder
	if err := tableTmpl.Execute(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

func enemyHeroTable(title string, rows []stats.EnemyHeroRow) Table {
	t := Table{
		Title:   title,
		Columns: []string{"Hero", "Matches", "Wins", "Win Rate %", "Avg GPM"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.HeroName,
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Wins),
			formatFloat(r.WinRate),
			formatFloat(r.AvgGPM),
		})
	}
	return t
}

func playerStatsTable(title string, rows []stats.PlayerStatsRow) Table {
	t := Table{
		Title:   title,
		Columns: []string{"Role", "Matches", "Wins", "Win Rate %", "Match IDs"},
	}
	for _, r := range rows {
		ids := make([]string, 0, len(r.MatchIDs))
		for _, id := range r.MatchIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		t.Rows = append(t.Rows, []string{
			r.Role,
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Wins),
			formatFloat(r.WinRate),
			strings.Join(ids, ", "),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>dotastats</title></head>
<body>
<h1>dotastats</h1>
<form id="query" method="post" action="/call_function">
  <label>Mode
    <select name="mode">
      <option value="Hero">Hero</option>
      <option value="Player">Player</option>
    </select>
  </label>
  <label>Player ID <input type="text" name="player_id"></label>
  <label>Other player ID <input type="text" name="other_player_id"></label>
  <label>Hero
    <select name="hero_name">
      <option value=""></option>
      {{range .Heroes}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
  </label>
  <label>Window
    <select name="window">
      <option value="all">All time</option>
      <option value="year">Last year</option>
      <option value="6m">Last 6 months</option>
      <option value="3m">Last 3 months</option>
      <option value="1m">Last month</option>
    </select>
  </label>
  <button type="submit">Go</button>
</form>
<p>Known accounts: {{range .Accounts}}{{.}} {{end}}</p>
<div id="result"></div>
</body>
</html>`))

type pageData struct {
	Heroes   []string
	Accounts []string
}

func renderPage(heroes []string, accounts []int64) (string, error) {
	data := pageData{Heroes: heroes}
	for _, id := range accounts {
		data.Accounts = append(data.Accounts, fmt.Sprintf("%d", id))
	}
	var b strings.Builder
	if err := pageTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
