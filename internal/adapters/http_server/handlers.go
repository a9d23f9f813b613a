package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"review_insights/internal/app"
	"review_insights/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews", h.listReviews)
	s.mux.Get("/v1/aggregates", h.aggregates)
	s.mux.Get("/v1/themes", h.themeCounts)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeQueryError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("query", what).Msg("query failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "could not load "+what)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 304 when the client already holds this version.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	q := domain.ReviewQuery{
		Bank:  r.URL.Query().Get("bank"),
		Theme: r.URL.Query().Get("theme"),
		Limit: limit,
	}
	out, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeQueryError(w, err, "reviews")
		return
	}
	if out.Items == nil {
		out.Items = []domain.Review{}
	}
	writeJSON(w, r, out)
}

func (h *Handlers) aggregates(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.Aggregates(r.Context(), r.URL.Query().Get("bank"))
	if err != nil {
		writeQueryError(w, err, "aggregates")
		return
	}
	if out == nil {
		out = []domain.Aggregate{}
	}
	writeJSON(w, r, out)
}

func (h *Handlers) themeCounts(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ThemeCounts(r.Context(), r.URL.Query().Get("bank"))
	if err != nil {
		writeQueryError(w, err, "themes")
		return
	}
	if out == nil {
		out = []domain.ThemeCount{}
	}
	writeJSON(w, r, out)
}
