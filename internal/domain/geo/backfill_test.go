package geo

import (
	"testing"

	"github.com/kiez-connect/kiezconnect/internal/domain/district"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
)

func testIndex(c Centroids) *district.Index {
	return district.NewIndex(c.Keys(), c.CityKey())
}

func TestBackfill_AssignsCentroidFromDistrictField(t *testing.T) {
	c := Berlin()
	rows := []listing.Listing{
		{Columns: map[string]string{"district": "Kreuzberg"}},
	}

	Backfill(rows, c, testIndex(c))

	if !rows[0].HasCoords() {
		t.Fatal("expected coordinates after backfill")
	}
	want := c.Lookup("kreuzberg")
	if *rows[0].Latitude != want.Lat || *rows[0].Longitude != want.Lon {
		t.Errorf("got (%v,%v), want %+v", *rows[0].Latitude, *rows[0].Longitude, want)
	}
	// District was present, must be untouched.
	if rows[0].Get("district") != "Kreuzberg" {
		t.Errorf("district changed to %q", rows[0].Get("district"))
	}
}

func TestBackfill_FallsBackToLocationField(t *testing.T) {
	c := Berlin()
	rows := []listing.Listing{
		{Columns: map[string]string{"location": "Coworking space, Prenzlauer-Berg"}},
	}

	Backfill(rows, c, testIndex(c))

	want := c.Lookup("prenzlauer berg")
	if *rows[0].Latitude != want.Lat || *rows[0].Longitude != want.Lon {
		t.Errorf("got (%v,%v), want %+v", *rows[0].Latitude, *rows[0].Longitude, want)
	}
	if rows[0].Get("district") != "Prenzlauer Berg" {
		t.Errorf("expected title-cased district write-back, got %q", rows[0].Get("district"))
	}
}

func TestBackfill_DefaultsToCityCentroid(t *testing.T) {
	c := Berlin()
	rows := []listing.Listing{{Columns: map[string]string{"title": "remote role"}}}

	Backfill(rows, c, testIndex(c))

	city := c.Lookup(c.CityKey())
	if *rows[0].Latitude != city.Lat || *rows[0].Longitude != city.Lon {
		t.Errorf("got (%v,%v), want city centroid %+v", *rows[0].Latitude, *rows[0].Longitude, city)
	}
	if rows[0].Get("district") != "Berlin" {
		t.Errorf("expected district 'Berlin', got %q", rows[0].Get("district"))
	}
}

func TestBackfill_NeverOverwritesCoordinates(t *testing.T) {
	c := Berlin()
	rows := []listing.Listing{{Columns: map[string]string{"district": "Kreuzberg"}}}
	rows[0].SetCoords(50.0, 10.0)

	Backfill(rows, c, testIndex(c))

	if *rows[0].Latitude != 50.0 || *rows[0].Longitude != 10.0 {
		t.Errorf("coordinates overwritten: (%v,%v)", *rows[0].Latitude, *rows[0].Longitude)
	}
}

func TestBackfill_Idempotent(t *testing.T) {
	c := Berlin()
	idx := testIndex(c)
	rows := []listing.Listing{
		{Columns: map[string]string{"district": "Moabit"}},
		{Columns: map[string]string{"location": "somewhere in Spandau"}},
		{Columns: map[string]string{}},
	}

	Backfill(rows, c, idx)
	first := listing.CloneAll(rows)
	Backfill(rows, c, idx)

	for i := range rows {
		if *rows[i].Latitude != *first[i].Latitude || *rows[i].Longitude != *first[i].Longitude {
			t.Errorf("row %d coordinates changed on second pass", i)
		}
		if rows[i].Get("district") != first[i].Get("district") {
			t.Errorf("row %d district changed on second pass", i)
		}
	}
}
