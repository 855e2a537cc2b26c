package dataset

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultRowLimit caps data rows when Options.Limit is zero.
const DefaultRowLimit = 200

// ErrNoColumns is returned when a source yields no columns at all.
var ErrNoColumns = errors.New("source has no columns")

// Options shape a collected Frame.
type Options struct {
	Columns    []string          `json:"columns,omitempty"` // output columns in order; default is the source schema
	Limit      int               `json:"limit,omitempty"`   // max data rows; 0 means DefaultRowLimit
	Transforms []TransformConfig `json:"transforms,omitempty"`
}

// Frame is a rectangular string table with a header.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	// Truncated reports that more rows were available than Limit.
	Truncated bool `json:"truncated"`
}

// Cells returns the header row followed by the data rows.
func (f *Frame) Cells() [][]string {
	cells := make([][]string, 0, len(f.Rows)+1)
	cells = append(cells, append([]string(nil), f.Columns...))
	for _, row := range f.Rows {
		cells = append(cells, append([]string(nil), row...))
	}
	return cells
}

// Collect reads a source through the transform chain into a Frame.
func Collect(ctx context.Context, sourceType string, cfg SourceConfig, opts Options) (*Frame, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, err
	}
	ts, err := BuildTransformers(opts.Transforms)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRowLimit
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	columns := opts.Columns
	if len(columns) == 0 {
		for _, name := range schema.FieldNames() {
			columns = append(columns, rename(name, ts))
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	recCh, errCh := source.Read(ctx, cfg)
	var records []Record
	for rec := range recCh {
		if rec, keep := ApplyTransformers(rec, ts); keep {
			records = append(records, rec)
		}
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceType, err)
	}
	applyBatchSort(records, ts)

	frame := &Frame{Columns: columns}
	if len(records) > limit {
		records = records[:limit]
		frame.Truncated = true
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = FormatValue(rec.Data[col])
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

// FormatValue renders a record value as cell text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
