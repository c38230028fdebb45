package geo

import (
	"github.com/kiez-connect/kiezconnect/internal/domain/district"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
)

// Backfill assigns centroid coordinates to every row missing latitude or
// longitude, resolving a district key from the row's own district field,
// then its location field, then the city fallback. When the district field
// was blank the resolved key is written back title-cased. Rows that already
// carry both coordinates are left untouched. Mutates rows in place; callers
// own the slice (the shared snapshot is only ever handed out as a copy).
// The pass is idempotent: a second run finds every row coordinated.
func Backfill(rows []listing.Listing, centroids Centroids, idx *district.Index) {
	for i := range rows {
		row := &rows[i]
		if row.HasCoords() {
			continue
		}

		key, ok := idx.Detect(row.Get("district"))
		if !ok {
			key, ok = idx.Detect(row.Get("location"))
		}
		if !ok {
			key = centroids.CityKey()
		}

		p := centroids.Lookup(key)
		row.SetCoords(p.Lat, p.Lon)
		if !row.Has("district") {
			row.Set("district", district.Title(key))
		}
	}
}
