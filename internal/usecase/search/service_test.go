package search

import (
	"context"
	"testing"

	"github.com/kiez-connect/kiezconnect/internal/config"
	"github.com/kiez-connect/kiezconnect/internal/domain/district"
	"github.com/kiez-connect/kiezconnect/internal/domain/geo"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
	"github.com/kiez-connect/kiezconnect/internal/domain/search/query"
)

// --- Mocks ---

type stubSnapshot struct {
	rows []listing.Listing
}

func (s *stubSnapshot) Snapshot() []listing.Listing {
	return listing.CloneAll(s.rows)
}

func newService(rows []listing.Listing) *Service {
	cfg := config.Config{}
	cfg.ApplyDefaults()
	centroids := geo.Berlin()
	idx := district.NewIndex(centroids.Keys(), centroids.CityKey())
	return New(&stubSnapshot{rows: rows}, centroids, idx, cfg.Search)
}

func fixtureRows() []listing.Listing {
	return []listing.Listing{
		{ID: 0, Category: listing.Job, Columns: map[string]string{
			"title":    "Python Developer",
			"company":  "ACME GmbH",
			"district": "Mitte",
		}},
		{ID: 1, Category: listing.Event, Columns: map[string]string{
			"title":    "Tech Meetup",
			"district": "Kreuzberg",
		}},
	}
}

func mustQuery(t *testing.T, p query.Params) query.Query {
	t.Helper()
	q, err := query.New(p)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

// --- Tests ---

func TestSearch_EndToEnd_PythonMitteNearby(t *testing.T) {
	svc := newService(fixtureRows())

	q := mustQuery(t, query.Params{Text: "python mitte", Scope: "nearby", RadiusKm: 3.0})
	got := svc.Search(context.Background(), q)

	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].ID != 0 || got[0].Category != listing.Job {
		t.Errorf("got row %d (%s), want the Mitte job", got[0].ID, got[0].Category)
	}
	mitte := geo.Berlin().Lookup("mitte")
	if *got[0].Latitude != mitte.Lat || *got[0].Longitude != mitte.Lon {
		t.Errorf("job coordinates (%v,%v), want Mitte centroid", *got[0].Latitude, *got[0].Longitude)
	}
}

func TestSearch_EndToEnd_TopicOnly(t *testing.T) {
	svc := newService(fixtureRows())

	q := mustQuery(t, query.Params{Topic: "event"})
	got := svc.Search(context.Background(), q)

	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].Category != listing.Event || got[0].Get("title") != "Tech Meetup" {
		t.Errorf("got %s %q, want the Kreuzberg event", got[0].Category, got[0].Get("title"))
	}
}

func TestSearch_EveryRowCoordinatedAfterSearch(t *testing.T) {
	rows := fixtureRows()
	rows = append(rows, listing.Listing{ID: 2, Category: listing.Course, Columns: map[string]string{
		"course_name": "Deutsch A1",
	}})
	svc := newService(rows)

	got := svc.Search(context.Background(), mustQuery(t, query.Params{}))

	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	for _, r := range got {
		if !r.HasCoords() {
			t.Errorf("row %d missing coordinates after search", r.ID)
		}
	}
	// The course had no district or location: generic city centroid + label.
	city := geo.Berlin().Lookup("berlin")
	course := got[2]
	if *course.Latitude != city.Lat || *course.Longitude != city.Lon {
		t.Errorf("course coordinates (%v,%v), want city centroid", *course.Latitude, *course.Longitude)
	}
	if course.Get("district") != "Berlin" {
		t.Errorf("course district = %q, want Berlin", course.Get("district"))
	}
}

func TestSearch_ScopeOnly_MatchesDistrictAndLocationText(t *testing.T) {
	rows := fixtureRows()
	rows = append(rows, listing.Listing{ID: 2, Category: listing.Job, Columns: map[string]string{
		"title":    "Support Engineer",
		"location": "Office near MITTE, Berlin",
	}})
	svc := newService(rows)

	q := mustQuery(t, query.Params{District: "Mitte", Scope: "only"})
	got := svc.Search(context.Background(), q)

	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].ID != 0 || got[1].ID != 2 {
		t.Errorf("got rows %d,%d, want 0,2", got[0].ID, got[1].ID)
	}
}

func TestSearch_NearbyRadiusBoundaryInclusive(t *testing.T) {
	origin := geo.Berlin().Lookup("mitte")
	far := geo.Berlin().Lookup("kreuzberg")
	dist := geo.Haversine(origin.Lat, origin.Lon, far.Lat, far.Lon)

	row := listing.Listing{ID: 0, Category: listing.Job, Columns: map[string]string{"title": "x"}}
	row.SetCoords(far.Lat, far.Lon)
	svc := newService([]listing.Listing{row})

	exact := mustQuery(t, query.Params{
		District: "Mitte", Scope: "nearby", RadiusKm: dist,
	})
	if got := svc.Search(context.Background(), exact); len(got) != 1 {
		t.Errorf("row exactly at radius excluded, want included")
	}

	tighter := mustQuery(t, query.Params{
		District: "Mitte", Scope: "nearby", RadiusKm: dist * 0.999,
	})
	if got := svc.Search(context.Background(), tighter); len(got) != 0 {
		t.Errorf("row beyond radius included, want excluded")
	}
}

func TestSearch_NearbyUsesCallerOrigin(t *testing.T) {
	rows := fixtureRows()
	svc := newService(rows)

	// Stand in Kreuzberg with a tight radius: only the event qualifies.
	kb := geo.Berlin().Lookup("kreuzberg")
	q := mustQuery(t, query.Params{
		District: "Mitte", Scope: "nearby", RadiusKm: 0.5,
		UseMyLocation: true, OriginLat: &kb.Lat, OriginLon: &kb.Lon,
	})
	got := svc.Search(context.Background(), q)

	if len(got) != 1 || got[0].Category != listing.Event {
		t.Fatalf("got %d rows, want only the Kreuzberg event", len(got))
	}
}

func TestSearch_ExplicitKeywordOverridesInference(t *testing.T) {
	rows := []listing.Listing{
		{ID: 0, Category: listing.Job, Columns: map[string]string{"title": "Python Developer"}},
		{ID: 1, Category: listing.Job, Columns: map[string]string{"title": "Python Manager"}},
	}
	svc := newService(rows)

	inferred := mustQuery(t, query.Params{Text: "python"})
	if got := svc.Search(context.Background(), inferred); len(got) != 2 {
		t.Fatalf("inferred keyword: got %d rows, want 2", len(got))
	}

	overridden := mustQuery(t, query.Params{Text: "python", Keyword: "manager"})
	got := svc.Search(context.Background(), overridden)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("explicit keyword: got %d rows, want only the manager role", len(got))
	}
}

func TestSearch_FreeTextScansConfiguredColumns(t *testing.T) {
	rows := []listing.Listing{
		{ID: 0, Category: listing.Course, Columns: map[string]string{
			"course_name": "Deutsch B2 Intensiv", "provider": "Sprachschule Aktiv",
		}},
		{ID: 1, Category: listing.Course, Columns: map[string]string{
			"course_name": "Deutsch A1", "provider": "VHS Pankow",
		}},
	}
	svc := newService(rows)

	q := mustQuery(t, query.Params{Text: "sprachschule"})
	got := svc.Search(context.Background(), q)

	if len(got) != 1 || got[0].ID != 0 {
		t.Fatalf("got %d rows, want the Sprachschule course", len(got))
	}
}

func TestSearch_SortByColumn(t *testing.T) {
	rows := []listing.Listing{
		{ID: 0, Category: listing.Job, Columns: map[string]string{"title": "Zookeeper", "price": "90"}},
		{ID: 1, Category: listing.Job, Columns: map[string]string{"title": "Analyst", "price": "200"}},
		{ID: 2, Category: listing.Job, Columns: map[string]string{"title": "Baker"}},
	}
	svc := newService(rows)

	asc := svc.Search(context.Background(), mustQuery(t, query.Params{SortBy: "title"}))
	if asc[0].Get("title") != "Analyst" || asc[2].Get("title") != "Zookeeper" {
		t.Errorf("ascending title sort wrong: %q..%q", asc[0].Get("title"), asc[2].Get("title"))
	}

	desc := svc.Search(context.Background(), mustQuery(t, query.Params{SortBy: "title", SortDir: "desc"}))
	if desc[0].Get("title") != "Zookeeper" {
		t.Errorf("descending title sort wrong: %q first", desc[0].Get("title"))
	}

	// Numeric-aware: "90" < "200"; the row without a price sorts last.
	byPrice := svc.Search(context.Background(), mustQuery(t, query.Params{SortBy: "price"}))
	if byPrice[0].ID != 0 || byPrice[1].ID != 1 || byPrice[2].ID != 2 {
		t.Errorf("price sort order: %d,%d,%d, want 0,1,2", byPrice[0].ID, byPrice[1].ID, byPrice[2].ID)
	}
}

func TestSearch_UnknownSortColumnIgnored(t *testing.T) {
	svc := newService(fixtureRows())

	got := svc.Search(context.Background(), mustQuery(t, query.Params{SortBy: "salary"}))
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 1 {
		t.Errorf("unknown sort column disturbed order or rows")
	}
}

func TestSearch_Deterministic(t *testing.T) {
	svc := newService(fixtureRows())
	q := mustQuery(t, query.Params{Text: "tech", Scope: "only", District: "Kreuzberg"})

	a := svc.Search(context.Background(), q)
	b := svc.Search(context.Background(), q)

	if len(a) != len(b) {
		t.Fatalf("result sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("row %d differs between runs: %d vs %d", i, a[i].ID, b[i].ID)
		}
	}
}

func TestSearch_DoesNotDisturbSnapshot(t *testing.T) {
	rows := fixtureRows()
	snap := &stubSnapshot{rows: rows}
	cfg := config.Config{}
	cfg.ApplyDefaults()
	centroids := geo.Berlin()
	idx := district.NewIndex(centroids.Keys(), centroids.CityKey())
	svc := New(snap, centroids, idx, cfg.Search)

	_ = svc.Search(context.Background(), mustQuery(t, query.Params{Scope: "nearby", District: "Mitte"}))

	// The stub's backing rows carried no coordinates; a search must not
	// have written any back through the snapshot copy.
	for i := range snap.rows {
		if snap.rows[i].HasCoords() {
			t.Errorf("search mutated the shared snapshot (row %d)", i)
		}
	}
}
