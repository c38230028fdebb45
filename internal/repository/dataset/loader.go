// Package dataset loads the listing CSVs into the process-wide snapshot.
// The snapshot is built once at startup and is immutable afterwards; readers
// get independent deep copies.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/kiez-connect/kiezconnect/internal/config"
	"github.com/kiez-connect/kiezconnect/internal/domain"
	"github.com/kiez-connect/kiezconnect/internal/domain/district"
	"github.com/kiez-connect/kiezconnect/internal/domain/geo"
	"github.com/kiez-connect/kiezconnect/internal/domain/listing"
)

// DataDirEnv overrides the data directory search order.
const DataDirEnv = "KC_DATA_DIR"

// Store holds the loaded, backfilled unified table.
type Store struct {
	rows []listing.Listing
}

// Load locates the three source CSVs, reads them with encoding fallback,
// normalizes headers, tags categories, concatenates jobs, events and courses
// in that order and runs the geocode backfill. Missing files are fatal.
func Load(
	cfg config.DataConfig,
	centroids geo.Centroids,
	idx *district.Index,
	logger *zap.Logger,
) (*Store, error) {
	dir, err := ResolveDir(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Loading listings", zap.String("data_dir", dir))

	sources := []struct {
		file      string
		category  listing.Category
		geoPrefer bool
	}{
		{cfg.JobsFile, listing.Job, true},
		{cfg.EventsFile, listing.Event, true},
		{cfg.CoursesFile, listing.Course, false},
	}

	var rows []listing.Listing
	for _, src := range sources {
		path := filepath.Join(dir, src.file)
		if src.geoPrefer {
			path = preferGeoSibling(path, cfg.GeoSuffix)
		}

		loaded, err := loadFile(path, src.category)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.file, err)
		}
		logger.Info("Loaded source file",
			zap.String("file", filepath.Base(path)),
			zap.String("category", string(src.category)),
			zap.Int("rows", len(loaded)),
		)
		rows = append(rows, loaded...)
	}

	// Positional ids over the unified table.
	for i := range rows {
		rows[i].ID = i
	}

	geo.Backfill(rows, centroids, idx)

	logger.Info("Dataset ready", zap.Int("total_rows", len(rows)))
	return &Store{rows: rows}, nil
}

// ResolveDir picks the data directory: KC_DATA_DIR, then the configured dir,
// then the first existing candidate dir.
func ResolveDir(cfg config.DataConfig) (string, error) {
	if env := os.Getenv(DataDirEnv); env != "" {
		if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(env, "~") {
			env = filepath.Join(home, strings.TrimPrefix(env, "~"))
		}
		if dirExists(env) {
			return env, nil
		}
		return "", fmt.Errorf("%w: %s=%s", domain.ErrFileNotFound, DataDirEnv, env)
	}
	if cfg.Dir != "" {
		if dirExists(cfg.Dir) {
			return cfg.Dir, nil
		}
		return "", fmt.Errorf("%w: data dir %s", domain.ErrFileNotFound, cfg.Dir)
	}
	for _, c := range cfg.CandidateDirs {
		if dirExists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: no data dir among %v", domain.ErrFileNotFound, cfg.CandidateDirs)
}

// Snapshot returns a deep copy of the table. Per-request filtering operates
// on the copy, so concurrent searches never observe each other's work.
func (s *Store) Snapshot() []listing.Listing {
	return listing.CloneAll(s.rows)
}

// Rows returns the number of loaded listings.
func (s *Store) Rows() int { return len(s.rows) }

// CategoryCounts returns loaded row counts per category, for metrics.
func (s *Store) CategoryCounts() map[listing.Category]int {
	counts := make(map[listing.Category]int, 3)
	for i := range s.rows {
		counts[s.rows[i].Category]++
	}
	return counts
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// preferGeoSibling swaps in "<stem><suffix>.csv" when that file exists.
func preferGeoSibling(path, suffix string) string {
	ext := filepath.Ext(path)
	sibling := strings.TrimSuffix(path, ext) + suffix + ext
	if _, err := os.Stat(sibling); err == nil {
		return sibling
	}
	return path
}

func loadFile(path string, category listing.Category) ([]listing.Listing, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}

	rows := make([]listing.Listing, 0, len(records))
	for _, rec := range records {
		row := listing.Listing{Category: category, Columns: make(map[string]string, len(header))}
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			switch col {
			case "latitude":
				if v, ok := parseCoord(cell); ok {
					lat := v
					row.Latitude = &lat
				}
			case "longitude":
				if v, ok := parseCoord(cell); ok {
					lon := v
					row.Longitude = &lon
				}
			default:
				row.Columns[col] = cell
			}
		}
		// A lone coordinate cannot be trusted; backfill replaces the pair.
		if row.Latitude == nil || row.Longitude == nil {
			row.Latitude, row.Longitude = nil, nil
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readTable reads a CSV with a header row, trying UTF-8 first and falling
// back to Latin-1. Header names are trimmed and lowercased; variable field
// counts are tolerated.
func readTable(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var lastErr error
	if utf8.Valid(data) {
		header, records, err := parseCSV(data)
		if err == nil {
			return header, records, nil
		}
		lastErr = err
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err == nil {
		header, records, perr := parseCSV(decoded)
		if perr == nil {
			return header, records, nil
		}
		lastErr = perr
	} else if lastErr == nil {
		lastErr = err
	}

	return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrUndecodable, path, lastErr)
}

func parseCSV(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty csv")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
	}
	return header, records[1:], nil
}

// parseCoord parses a coordinate cell, rejecting non-finite values.
func parseCoord(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
