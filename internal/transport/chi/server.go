// Package chi exposes the search service over a minimal JSON API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kiez-connect/kiezconnect/internal/config"
	"github.com/kiez-connect/kiezconnect/internal/domain"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
	"github.com/kiez-connect/kiezconnect/internal/domain/search/query"
	healthuc "github.com/kiez-connect/kiezconnect/internal/usecase/health"
	searchuc "github.com/kiez-connect/kiezconnect/internal/usecase/search"
	"github.com/kiez-connect/kiezconnect/internal/version"
)

// presentationColumns is the ordered set of columns surfaced to clients,
// filtered to those actually present in a result set. Coordinates, id and
// category are always emitted separately.
var presentationColumns = []string{
	"title", "course_name", "provider", "company",
	"district", "location", "address",
	"date", "start_date", "end_date", "when", "time", "start_time",
	"price", "duration", "level",
	"job_url_direct", "job_url", "link", "url", "website",
	"registration", "appointment_url", "booking_url",
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers for the listings API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	paging        config.SearchConfig
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, paging config.SearchConfig, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		paging: paging,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrDatasetNotLoaded, http.StatusInternalServerError, "dataset_not_loaded"),
	}
	return s
}

// Routes mounts the API on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/api/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/api/search", s.SearchListings)
}

// Root handles GET / with a service banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Kiez Connect API is running",
		"version": version.Version,
		"health":  "/api/health",
		"search": map[string]any{
			"method": "POST",
			"path":   "/api/search",
			"body_example": map[string]any{
				"query":           "jobs in Mitte python",
				"topic":           "job",
				"district":        "Mitte",
				"scope":           "nearby",
				"radius_km":       3.0,
				"use_my_location": false,
				"origin_lat":      52.52,
				"origin_lon":      13.405,
				"limit":           25,
			},
		},
	})
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": checks,
		"rows":   report.Rows,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequest mirrors the public search body.
type searchRequest struct {
	Query         string   `json:"query"`
	Topic         string   `json:"topic"`
	District      string   `json:"district"`
	Scope         string   `json:"scope"`
	RadiusKm      float64  `json:"radius_km"`
	UseMyLocation bool     `json:"use_my_location"`
	OriginLat     *float64 `json:"origin_lat"`
	OriginLon     *float64 `json:"origin_lon"`
	Keyword       string   `json:"keyword"`
	Limit         *int     `json:"limit"`
	Offset        int      `json:"offset"`
	SortBy        string   `json:"sort_by"`
	SortDir       string   `json:"sort_dir"`
}

// SearchListings handles POST /api/search. Paging is applied here, after the
// engine returns, so total always counts the unpaged result.
func (s *Server) SearchListings(w http.ResponseWriter, r *http.Request) {
	if s.health.Check(r.Context()).Rows == 0 {
		s.handleDomainError(w, domain.ErrDatasetNotLoaded)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	radius := req.RadiusKm
	if radius == 0 {
		radius = s.paging.DefaultRadiusKm
	}

	q, err := query.New(query.Params{
		Text:          req.Query,
		Topic:         req.Topic,
		District:      req.District,
		Scope:         req.Scope,
		RadiusKm:      radius,
		UseMyLocation: req.UseMyLocation,
		OriginLat:     req.OriginLat,
		OriginLon:     req.OriginLon,
		Keyword:       req.Keyword,
		SortBy:        req.SortBy,
		SortDir:       req.SortDir,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := s.search.Search(r.Context(), q)
	total := len(results)

	if req.Offset > 0 {
		if req.Offset >= len(results) {
			results = nil
		} else {
			results = results[req.Offset:]
		}
	}

	limit := s.limitFor(req.Limit)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	items := itemsFor(results)
	writeJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"count": len(items),
		"items": items,
	})
}

// limitFor resolves the page size: absent means the default, non-positive
// means unlimited, anything above the cap is clamped.
func (s *Server) limitFor(requested *int) int {
	if requested == nil {
		return s.paging.DefaultPageSize
	}
	limit := *requested
	if limit <= 0 {
		return 0
	}
	if limit > s.paging.MaxPageSize {
		return s.paging.MaxPageSize
	}
	return limit
}

// itemsFor renders listings with the union of presentation columns present
// in the result set, blank for rows that lack one, so clients render
// without null handling.
func itemsFor(rows []listing.Listing) []map[string]any {
	present := make(map[string]bool)
	for i := range rows {
		for _, c := range presentationColumns {
			if !present[c] {
				if _, ok := rows[i].Columns[c]; ok {
					present[c] = true
				}
			}
		}
	}

	items := make([]map[string]any, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		item := map[string]any{
			"id":   row.ID,
			"type": string(row.Category),
		}
		if row.Latitude != nil {
			item["latitude"] = *row.Latitude
		}
		if row.Longitude != nil {
			item["longitude"] = *row.Longitude
		}
		for _, c := range presentationColumns {
			if present[c] {
				item[c] = row.Get(c)
			}
		}
		items = append(items, item)
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// handleDomainError maps a domain error to HTTP, defaulting to 500.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
