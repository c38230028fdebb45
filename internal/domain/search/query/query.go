// Package query defines the validated search query value consumed by the
// query engine.
package query

import (
	"fmt"
	"strings"

	"github.com/kiez-connect/kiezconnect/internal/domain"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
	"github.com/kiez-connect/kiezconnect/internal/domain/search/scope"
)

// Search parameter limits and defaults.
const (
	MaxTextLength   = 1024
	DefaultRadiusKm = 3.0
)

// Direction orders sort output.
type Direction string

// Sort direction constants.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Params carries raw search parameters prior to validation.
type Params struct {
	Text          string // free-text query
	Topic         string // job, event, course or empty
	District      string
	Scope         string // all, only, nearby or empty
	RadiusKm      float64
	UseMyLocation bool
	OriginLat     *float64
	OriginLon     *float64
	Keyword       string
	SortBy        string
	SortDir       string // asc, desc or empty
}

// Query is a validated search query.
type Query struct {
	text          string
	topic         listing.Category
	district      string
	searchScope   scope.Scope
	radiusKm      float64
	useMyLocation bool
	originLat     float64
	originLon     float64
	keyword       string
	sortBy        string
	sortDir       Direction
}

// New validates and normalizes search parameters.
// Defaults: scope=all, radius_km=3.0, sort_dir=asc. A use-my-location flag
// without both origin coordinates is switched off rather than rejected, so
// the nearby path falls back to the district centroid.
func New(p Params) (Query, error) {
	if len(p.Text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: text too long (max %d chars)", domain.ErrInvalidQuery, MaxTextLength)
	}

	topic, ok := listing.ParseCategory(p.Topic)
	if !ok {
		return Query{}, fmt.Errorf("%w: unknown topic %q", domain.ErrInvalidQuery, p.Topic)
	}

	sc := scope.Scope(strings.ToLower(strings.TrimSpace(p.Scope)))
	if sc == "" {
		sc = scope.All
	}
	if !sc.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidQuery, p.Scope)
	}

	radius := p.RadiusKm
	if radius == 0 {
		radius = DefaultRadiusKm
	}
	if radius < 0 {
		return Query{}, fmt.Errorf("%w: radius_km must be positive, got %v", domain.ErrInvalidQuery, p.RadiusKm)
	}

	dir := Direction(strings.ToLower(strings.TrimSpace(p.SortDir)))
	if dir == "" {
		dir = Asc
	}
	if dir != Asc && dir != Desc {
		return Query{}, fmt.Errorf("%w: unknown sort_dir %q", domain.ErrInvalidQuery, p.SortDir)
	}

	q := Query{
		text:        strings.TrimSpace(p.Text),
		topic:       topic,
		district:    strings.TrimSpace(p.District),
		searchScope: sc,
		radiusKm:    radius,
		keyword:     strings.TrimSpace(p.Keyword),
		sortBy:      strings.TrimSpace(p.SortBy),
		sortDir:     dir,
	}

	if p.UseMyLocation && p.OriginLat != nil && p.OriginLon != nil {
		q.useMyLocation = true
		q.originLat = *p.OriginLat
		q.originLon = *p.OriginLon
	}

	return q, nil
}

// Text returns the free-text query.
func (q *Query) Text() string { return q.text }

// Topic returns the category filter ("" when unset).
func (q *Query) Topic() listing.Category { return q.topic }

// District returns the explicit district ("" when unset).
func (q *Query) District() string { return q.district }

// Scope returns the district matching mode.
func (q *Query) Scope() scope.Scope { return q.searchScope }

// RadiusKm returns the nearby search radius.
func (q *Query) RadiusKm() float64 { return q.radiusKm }

// UseMyLocation reports whether the caller supplied a usable origin.
func (q *Query) UseMyLocation() bool { return q.useMyLocation }

// Origin returns the caller-supplied origin point; valid only when
// UseMyLocation is true.
func (q *Query) Origin() (lat, lon float64) { return q.originLat, q.originLon }

// Keyword returns the explicit keyword override ("" when unset).
func (q *Query) Keyword() string { return q.keyword }

// SortBy returns the requested sort column ("" when unset).
func (q *Query) SortBy() string { return q.sortBy }

// SortDir returns the sort direction.
func (q *Query) SortDir() Direction { return q.sortDir }
