package search

import "github.com/kiez-connect/kiezconnect/internal/domain/listing"

// SnapshotProvider hands out independent copies of the loaded table.
// Implementations must never return a view that aliases shared state: the
// engine mutates its working set during backfill.
type SnapshotProvider interface {
	Snapshot() []listing.Listing
}
