package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"reports/internal/dataset"
)

// csvFileSource reads records from a local CSV file.
type csvFileSource struct{}

func init() { dataset.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() dataset.SourceSpec {
	return dataset.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []dataset.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the CSV file"},
			{Key: "delimiter", Label: "Delimiter", Type: "string", Default: ",", Help: "Column delimiter (default: comma)"},
			{Key: "hasHeader", Label: "Has Header", Type: "select", Options: []string{"true", "false"}, Default: "true", Help: "Whether the first row contains column names"},
		},
	}
}

func (s *csvFileSource) Discover(_ context.Context, cfg dataset.SourceConfig) (*dataset.Schema, error) {
	headers, _, err := readCSVFile(cfg)
	if err != nil {
		return nil, err
	}
	schema := &dataset.Schema{Fields: make([]dataset.Field, len(headers))}
	for i, h := range headers {
		schema.Fields[i] = dataset.Field{Name: h, Type: "text"}
	}
	return schema, nil
}

func (s *csvFileSource) Read(ctx context.Context, cfg dataset.SourceConfig) (<-chan dataset.Record, <-chan error) {
	out := make(chan dataset.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		headers, rows, err := readCSVFile(cfg)
		if err != nil {
			errCh <- err
			return
		}
		for _, row := range rows {
			data := make(map[string]any, len(headers))
			for j, h := range headers {
				if j < len(row) {
					data[h] = strings.TrimSpace(row[j])
				}
			}
			select {
			case out <- dataset.Record{Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func readCSVFile(cfg dataset.SourceConfig) ([]string, [][]string, error) {
	filePath := cfg.String("filePath")
	if filePath == "" {
		return nil, nil, fmt.Errorf("filePath is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if delim := cfg.String("delimiter"); delim != "" {
		reader.Comma = rune(delim[0])
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty csv file")
	}

	if strings.ToLower(cfg.String("hasHeader")) == "false" {
		headers := make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i+1)
		}
		return headers, records, nil
	}
	return records[0], records[1:], nil
}
