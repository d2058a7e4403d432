package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/registry"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"travelLine": travelLine,
}).Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Restaurant Recommendations</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f6f5f2; margin: 0; }
    main { max-width: 880px; margin: 0 auto; padding: 2rem 1rem; }
    h1 { margin-bottom: 0.25rem; }
    .subtitle { color: #666; margin-top: 0; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 1rem; }
    .card { background: #fff; border-radius: 10px; padding: 1rem 1.25rem; box-shadow: 0 1px 4px rgba(0,0,0,0.08); }
    .card h2 { margin: 0 0 0.25rem; font-size: 1.1rem; }
    .address { color: #555; margin: 0 0 0.5rem; }
    .meta span { margin-right: 0.75rem; color: #333; }
    .travel { color: #0a7d4f; margin-bottom: 0; }
  </style>
</head>
<body>
  <main>
    <h1>Restaurant Recommendations</h1>
    <p class="subtitle">Here are the places we found for your last call.</p>
    {{if .Results}}<section class="grid">
    {{range .Results}}<article class="card">
      <h2>{{.Name}}</h2>
      <p class="address">{{.Address}}</p>
      <p class="meta">
        <span>&#11088; {{.Rating}}</span>
        <span>Reviews: {{.UserRatingCount}}</span>
        <span>{{if .PriceLevel}}{{.PriceLevel}}{{else}}Price N/A{{end}}</span>
      </p>
      {{with travelLine .Travel}}<p class="travel">{{.}}</p>{{end}}
    </article>
    {{end}}</section>{{else}}<p>No restaurants were stored.</p>{{end}}
  </main>
</body>
</html>
`))

// travelLine joins the duration and distance texts with a separator,
// dropping whichever is empty.
func travelLine(t *places.Travel) string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if t.DurationText != "" {
		parts = append(parts, t.DurationText)
	}
	if t.DistanceText != "" {
		parts = append(parts, t.DistanceText)
	}
	return strings.Join(parts, " · ")
}

type dashboardPage struct {
	Results []places.Candidate
}

// handleDashboard renders the stored search as HTML cards. Unknown or
// expired ids render the empty state with a 404.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")
	rec, err := s.results.Lookup(r.Context(), searchID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			s.log.Error().Err(err).Str("search_id", searchID).Msg("registry lookup failed")
		}
		w.WriteHeader(http.StatusNotFound)
		_ = dashboardTmpl.Execute(w, dashboardPage{})
		return
	}
	if err := dashboardTmpl.Execute(w, dashboardPage{Results: rec.Results}); err != nil {
		s.log.Error().Err(err).Msg("dashboard render failed")
	}
}

// handleSearchAPI returns the raw stored record for a search id.
func (s *Server) handleSearchAPI(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")
	rec, err := s.results.Lookup(r.Context(), searchID)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			s.log.Error().Err(err).Str("search_id", searchID).Msg("registry lookup failed")
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Search not found or expired."}`))
		return
	}

	body, err := sonic.Marshal(rec)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encoding failure"}`))
		return
	}
	_, _ = w.Write(body)
}
