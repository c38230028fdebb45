// Package search implements the in-memory query engine: a fixed filter
// pipeline over a per-request copy of the listings snapshot.
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kiez-connect/kiezconnect/internal/config"
	"github.com/kiez-connect/kiezconnect/internal/domain/district"
	"github.com/kiez-connect/kiezconnect/internal/domain/geo"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
	"github.com/kiez-connect/kiezconnect/internal/domain/search/query"
	"github.com/kiez-connect/kiezconnect/internal/domain/search/scope"
	"github.com/kiez-connect/kiezconnect/internal/logger"
	"github.com/kiez-connect/kiezconnect/internal/metrics"
)

// Service executes search queries against the listings snapshot.
type Service struct {
	snap      SnapshotProvider
	centroids geo.Centroids
	districts *district.Index
	cfg       config.SearchConfig
}

// New creates a search service.
func New(snap SnapshotProvider, centroids geo.Centroids, districts *district.Index, cfg config.SearchConfig) *Service {
	return &Service{snap: snap, centroids: centroids, districts: districts, cfg: cfg}
}

// Search runs the filter pipeline. Stage order is fixed: district inference,
// topic filter, keyword inference, district+scope filter, keyword filter,
// free-text filter, final backfill, optional sort. Later stages assume the
// earlier narrowing already happened, so the order must not change. The
// result is deterministic for a fixed snapshot and query.
func (s *Service) Search(ctx context.Context, q query.Query) []listing.Listing {
	rows := s.snap.Snapshot()

	// Infer district from query text when none was given explicitly.
	effDistrict := q.District()
	if effDistrict == "" && q.Text() != "" {
		if d, ok := s.districts.Detect(q.Text()); ok {
			effDistrict = d
		}
	}

	if q.Topic() != "" {
		rows = keep(rows, func(l *listing.Listing) bool {
			return strings.EqualFold(string(l.Category), string(q.Topic()))
		})
	}

	// Infer a keyword from query text when none was given explicitly:
	// first configured term appearing in the lowered query wins.
	effKeyword := q.Keyword()
	if effKeyword == "" && q.Text() != "" {
		ql := strings.ToLower(q.Text())
		for _, k := range s.cfg.Keywords {
			if strings.Contains(ql, k) {
				effKeyword = k
				break
			}
		}
	}

	if effDistrict != "" {
		rows = s.filterDistrict(rows, effDistrict, q)
	}

	if effKeyword != "" {
		kl := strings.ToLower(effKeyword)
		rows = keep(rows, func(l *listing.Listing) bool {
			return anyColumnContains(l, s.cfg.KeywordColumns, kl)
		})
	}

	if q.Text() != "" {
		// Token-AND over the text columns: every word of the query must
		// appear in some column, though not necessarily the same one. A
		// query like "python mitte" keeps a row with the district in one
		// column and the term in another.
		tokens := strings.Fields(strings.ToLower(q.Text()))
		rows = keep(rows, func(l *listing.Listing) bool {
			for _, tok := range tokens {
				if !anyColumnContains(l, s.cfg.FreeTextColumns, tok) {
					return false
				}
			}
			return true
		})
	}

	// Every returned row carries coordinates no matter which stages ran.
	geo.Backfill(rows, s.centroids, s.districts)

	if q.SortBy() != "" {
		sortRows(rows, q.SortBy(), q.SortDir() == query.Desc)
	}

	s.observe(ctx, q, effDistrict, effKeyword, len(rows))
	return rows
}

// filterDistrict applies the scope stage for an effective district.
func (s *Service) filterDistrict(rows []listing.Listing, effDistrict string, q query.Query) []listing.Listing {
	dkey := strings.ToLower(effDistrict)

	switch q.Scope() {
	case scope.Only:
		return keep(rows, func(l *listing.Listing) bool {
			return strings.Contains(strings.ToLower(l.Get("district")), dkey) ||
				strings.Contains(strings.ToLower(l.Get("location")), dkey)
		})
	case scope.Nearby:
		var origin geo.Point
		if q.UseMyLocation() {
			origin.Lat, origin.Lon = q.Origin()
		} else {
			origin = s.centroids.Lookup(dkey)
		}

		// Every row must be coordinated before the radius comparison.
		geo.Backfill(rows, s.centroids, s.districts)

		return keep(rows, func(l *listing.Listing) bool {
			if !l.HasCoords() {
				return false
			}
			d := geo.Haversine(origin.Lat, origin.Lon, *l.Latitude, *l.Longitude)
			return d <= q.RadiusKm()
		})
	default: // scope.All: no district filtering
		return rows
	}
}

func (s *Service) observe(ctx context.Context, q query.Query, effDistrict, effKeyword string, results int) {
	topic := string(q.Topic())
	if topic == "" {
		topic = "all"
	}
	metrics.SearchRequestsTotal.WithLabelValues(topic, string(q.Scope())).Inc()
	metrics.SearchResultsReturned.WithLabelValues(string(q.Scope())).Observe(float64(results))

	logger.FromContext(ctx).Debug("search executed",
		zap.String("topic", topic),
		zap.String("scope", string(q.Scope())),
		zap.String("district", effDistrict),
		zap.String("keyword", effKeyword),
		zap.String("text", q.Text()),
		zap.Int("results", results),
	)
}

// keep filters rows into a fresh slice.
func keep(rows []listing.Listing, pred func(*listing.Listing) bool) []listing.Listing {
	out := make([]listing.Listing, 0, len(rows))
	for i := range rows {
		if pred(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

func anyColumnContains(l *listing.Listing, columns []string, needle string) bool {
	for _, c := range columns {
		if v := l.Get(c); v != "" && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// sortRows sorts stably by a column. An unknown column is silently ignored.
// Cells that both parse as numbers compare numerically, otherwise lexically;
// rows missing the column sort last in either direction.
func sortRows(rows []listing.Listing, column string, desc bool) {
	if !columnExists(rows, column) {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := cellValue(&rows[i], column)
		vj, okj := cellValue(&rows[j], column)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}

		ni, ei := strconv.ParseFloat(vi, 64)
		nj, ej := strconv.ParseFloat(vj, 64)
		if ei == nil && ej == nil {
			if desc {
				return ni > nj
			}
			return ni < nj
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
}

func columnExists(rows []listing.Listing, column string) bool {
	switch column {
	case "id", "type", "latitude", "longitude":
		return true
	}
	for i := range rows {
		if _, ok := rows[i].Columns[column]; ok {
			return true
		}
	}
	return false
}

// cellValue renders a row's cell for sorting. The synthetic columns map to
// the typed fields.
func cellValue(l *listing.Listing, column string) (string, bool) {
	switch column {
	case "id":
		return strconv.Itoa(l.ID), true
	case "type":
		return string(l.Category), true
	case "latitude":
		if l.Latitude == nil {
			return "", false
		}
		return strconv.FormatFloat(*l.Latitude, 'f', -1, 64), true
	case "longitude":
		if l.Longitude == nil {
			return "", false
		}
		return strconv.FormatFloat(*l.Longitude, 'f', -1, 64), true
	}
	v, ok := l.Columns[column]
	return v, ok
}
