package catalog

import (
	"context"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// header maps lowercase column names to their positions in the CSV header.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.ToLower(strings.TrimSpace(c))] = i
	}
	return h
}

// require fails with ErrSchema when any of the given columns is absent,
// listing the missing names so the caller can fix the catalog in one pass.
func (h header) require(table string, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return eris.Wrapf(ErrSchema, "catalog: %s missing columns %v", table, missing)
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// coord parses a coordinate field. Empty or unparseable values become NaN;
// downstream spatial code drops NaN rows (documented silent-drop policy).
func (h header) coord(row []string, col string) float64 {
	raw := h.get(row, col)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func readTable(ctx context.Context, path, table string, required []string, each func(h header, row []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close()

	// Cancel the producer on early return so it never blocks on a row send
	// nobody will receive.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})

	var h header
	rows := 0
	for row := range rowCh {
		if h == nil {
			select {
			case cols := <-headerCh:
				h = newHeader(cols)
			default:
				return eris.Errorf("catalog: %s has no header row", table)
			}
			if err := h.require(table, required...); err != nil {
				return err
			}
		}
		each(h, row)
		rows++
	}
	if err := <-errCh; err != nil {
		return eris.Wrapf(err, "catalog: read %s", table)
	}
	if h == nil {
		// Header-only or empty file: still validate the header if present.
		select {
		case cols := <-headerCh:
			h = newHeader(cols)
			if err := h.require(table, required...); err != nil {
				return err
			}
		default:
			return eris.Wrapf(ErrSchema, "catalog: %s is empty", table)
		}
	}

	zap.L().Debug("catalog: loaded table",
		zap.String("table", table),
		zap.String("path", path),
		zap.Int("rows", rows),
	)
	return nil
}

// LoadLibraries reads the library branch catalog from a CSV file.
func LoadLibraries(ctx context.Context, path string) ([]Library, error) {
	var out []Library
	err := readTable(ctx, path, "libraries", []string{"id", "lat", "lon", "city"}, func(h header, row []string) {
		out = append(out, Library{
			ID:       h.get(row, "id"),
			Name:     h.get(row, "name"),
			City:     h.get(row, "city"),
			District: h.get(row, "district"),
			Lat:      h.coord(row, "lat"),
			Lon:      h.coord(row, "lon"),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCandidates reads the outreach candidate catalog from a CSV file.
func LoadCandidates(ctx context.Context, path string) ([]Candidate, error) {
	var out []Candidate
	err := readTable(ctx, path, "outreach_candidates", []string{"id", "name", "lat", "lon", "city"}, func(h header, row []string) {
		out = append(out, Candidate{
			ID:       h.get(row, "id"),
			Name:     h.get(row, "name"),
			City:     h.get(row, "city"),
			District: h.get(row, "district"),
			Type:     h.get(row, "type"),
			Lat:      h.coord(row, "lat"),
			Lon:      h.coord(row, "lon"),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadStops reads the transit stop table from a CSV file.
func LoadStops(ctx context.Context, path string) ([]Stop, error) {
	var out []Stop
	err := readTable(ctx, path, "stops", []string{"stop_id", "lat", "lon", "mode"}, func(h header, row []string) {
		out = append(out, Stop{
			StopID: h.get(row, "stop_id"),
			Lat:    h.coord(row, "lat"),
			Lon:    h.coord(row, "lon"),
			Mode:   strings.ToLower(h.get(row, "mode")),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
