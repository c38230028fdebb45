// Package listing defines the unified listing row shared by the loader and
// the query engine.
package listing

import "strings"

// Category tags a listing with its source dataset.
type Category string

const (
	// Job is a tech job posting.
	Job Category = "job"
	// Event is a tech community event.
	Event Category = "event"
	// Course is a German language course.
	Course Category = "course"
)

// ParseCategory parses a category case-insensitively. Empty input is valid
// and means "no category filter".
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", true
	case Job:
		return Job, true
	case Event:
		return Event, true
	case Course:
		return Course, true
	default:
		return "", false
	}
}

// Listing is one row of the unified table. ID is the positional index
// assigned at concat time, not a natural key. Columns holds every normalized
// CSV column for the row; coordinates are typed separately because they are
// the only cells the engine interprets numerically.
type Listing struct {
	ID        int
	Category  Category
	Latitude  *float64
	Longitude *float64
	Columns   map[string]string
}

// Get returns the value of a column, or "" when the column is absent.
func (l *Listing) Get(column string) string {
	return l.Columns[column]
}

// Has reports whether the row carries a non-blank value for the column.
func (l *Listing) Has(column string) bool {
	return strings.TrimSpace(l.Columns[column]) != ""
}

// Set stores a column value, allocating the map on first use.
func (l *Listing) Set(column, value string) {
	if l.Columns == nil {
		l.Columns = make(map[string]string)
	}
	l.Columns[column] = value
}

// HasCoords reports whether both coordinates are present.
func (l *Listing) HasCoords() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// SetCoords assigns fresh coordinate values.
func (l *Listing) SetCoords(lat, lon float64) {
	l.Latitude = &lat
	l.Longitude = &lon
}

// Clone returns a fully independent copy of the row.
func (l *Listing) Clone() Listing {
	out := Listing{ID: l.ID, Category: l.Category}
	if l.Latitude != nil {
		lat := *l.Latitude
		out.Latitude = &lat
	}
	if l.Longitude != nil {
		lon := *l.Longitude
		out.Longitude = &lon
	}
	if l.Columns != nil {
		out.Columns = make(map[string]string, len(l.Columns))
		for k, v := range l.Columns {
			out.Columns[k] = v
		}
	}
	return out
}

// CloneAll deep-copies a table so per-request filtering never disturbs the
// shared snapshot.
func CloneAll(rows []Listing) []Listing {
	out := make([]Listing, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out
}
