package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/codeembed"
	"github.com/sitekit/sitekit/internal/repocard"
	"github.com/sitekit/sitekit/internal/search"
)

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Docs    uint64 `json:"docs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Docs: s.app.IndexedDocs()}
	if b := s.app.Engine.Backend(); b != nil {
		resp.Backend = b.Name()
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchResponse struct {
	Query   string           `json:"query"`
	Results search.ResultSet `json:"results"`
}

// handleSearch answers a one-shot query. Backend failures yield an empty
// result list, as they do for the search box.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results := s.app.Engine.Query(r.Context(), q)
	if results == nil {
		results = search.ResultSet{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}

type repoResponse struct {
	Card repocard.Card `json:"card"`
	HTML template.HTML `json:"html"`
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
	if _, _, err := repocard.SplitID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card := s.app.Repos.Card(r.Context(), id)

	markup, err := repocard.Render(card)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(markup))
		return
	}
	writeJSON(w, http.StatusOK, repoResponse{Card: card, HTML: markup})
}

// handleEmbed renders /api/embed?user=&repo=&branch=&path=&start=&end=
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := codeembed.ParseAttributes(map[string]string{
		"user":       q.Get("user"),
		"repo":       q.Get("repo"),
		"branch":     q.Get("branch"),
		"filepath":   q.Get("path"),
		"line-start": q.Get("start"),
		"line-end":   q.Get("end"),
		"tabsize":    q.Get("tabsize"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	theme := q.Get("theme")
	if theme == "" {
		theme = s.app.Preference.Theme()
	}

	embed, err := s.app.Embedder.Render(r.Context(), spec, theme)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, codeembed.ErrNotAllowed) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, embed)
}

type outlineRequest struct {
	HTML string `json:"html"`
	app.OutlineRequest
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPageSize)

	var req outlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	result, err := s.app.ComputeOutline(strings.NewReader(req.HTML), req.OutlineRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type themeResponse struct {
	Theme string `json:"theme"`
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.app.Preference.Theme()})
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	theme, err := s.app.Preference.Toggle()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
