package store

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Source column names.
const (
	ColID       = "dog_id"
	ColRegion   = "contact_state"
	ColBreed    = "breed_primary"
	ColAge      = "age"
	ColSex      = "sex"
	ColSize     = "size"
	ColChildren = "env_children"
	ColDogs     = "env_dogs"
	ColCats     = "env_cats"
)

var requiredColumns = []string{
	ColID, ColRegion, ColBreed, ColAge, ColSex, ColSize, ColChildren, ColDogs, ColCats,
}

type columnIndex map[string]int

func (c columnIndex) value(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadFile reads the CSV at path into a Store. Any failure to open, read, or
// find the required columns yields a *errors.DataLoadError.
func LoadFile(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errors.DataLoadError{Source: path, Reason: "open source", Err: err}
	}
	defer f.Close()

	s, err := Load(ctx, f, logger)
	if err != nil {
		var loadErr *errors.DataLoadError
		if stderrors.As(err, &loadErr) {
			loadErr.Source = path
		}
		return nil, err
	}
	s.source = path
	return s, nil
}

// Load parses CSV rows from r. Rows are parsed in parallel batches; the
// resulting record order matches the source order.
func Load(ctx context.Context, r io.Reader, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &errors.DataLoadError{Reason: "empty source, no header row"}
	}
	if err != nil {
		return nil, &errors.DataLoadError{Reason: "read header", Err: err}
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		batches   [][]models.Record
		malformed int
		g         errgroup.Group
		batch     = make([][]string, 0, batchSize)
	)
	g.SetLimit(maxWorkers)

	flush := func(rows [][]string) {
		slot := len(batches)
		batches = append(batches, nil)
		out := make([]models.Record, len(rows))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i, row := range rows {
				out[i] = parseRecord(cols, row)
			}
			return nil
		})
		batches[slot] = out
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, &errors.DataLoadError{Reason: "load cancelled", Err: err}
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				malformed++
				continue
			}
			_ = g.Wait()
			return nil, &errors.DataLoadError{Reason: "read rows", Err: err}
		}

		batch = append(batch, row)
		if len(batch) >= batchSize {
			flush(batch)
			batch = make([][]string, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		flush(batch)
	}

	if err := g.Wait(); err != nil {
		return nil, &errors.DataLoadError{Reason: "parse rows", Err: err}
	}

	records, dropped := collect(batches)
	s := &Store{
		records:  records,
		loadedAt: time.Now(),
		dropped:  dropped + malformed,
	}

	logger.Info("dataset parsed",
		"records", len(records),
		"dropped", s.dropped,
		"malformed", malformed,
		"duration", time.Since(start),
	)
	if len(records) == 0 {
		logger.Warn("dataset has no usable records")
	}

	return s, nil
}

func indexColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.DataLoadError{
			Reason: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return cols, nil
}

// parseRecord never fails: fields outside their domain are left empty so
// each aggregate can exclude them on its own terms.
func parseRecord(cols columnIndex, row []string) models.Record {
	age, _ := models.ParseAge(cols.value(row, ColAge))
	sex, _ := models.ParseSex(cols.value(row, ColSex))
	size, _ := models.ParseSize(cols.value(row, ColSize))

	return models.Record{
		ID:       cols.value(row, ColID),
		Region:   models.NormalizeRegion(cols.value(row, ColRegion)),
		Breed:    cols.value(row, ColBreed),
		Age:      age,
		Sex:      sex,
		Size:     size,
		Children: models.ParseCompat(cols.value(row, ColChildren)),
		Dogs:     models.ParseCompat(cols.value(row, ColDogs)),
		Cats:     models.ParseCompat(cols.value(row, ColCats)),
	}
}

// collect flattens parsed batches, dropping rows without an id and repeats
// of an id already seen.
func collect(batches [][]models.Record) ([]models.Record, int) {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	records := make([]models.Record, 0, total)
	seen := make(map[string]struct{}, total)
	dropped := 0
	for _, b := range batches {
		for _, rec := range b {
			if rec.ID == "" {
				dropped++
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				dropped++
				continue
			}
			seen[rec.ID] = struct{}{}
			records = append(records, rec)
		}
	}
	return records, dropped
}
