package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"reports/internal/dataset"
)

// jsonFileSource reads records from an array in a local JSON file.
type jsonFileSource struct{}

func init() { dataset.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() dataset.SourceSpec {
	return dataset.SourceSpec{
		Type:  "json_file",
		Label: "JSON File",
		ConfigFields: []dataset.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the JSON file"},
			{Key: "dataPath", Label: "Data Path", Type: "string", Help: "Dot-separated path to the array (e.g., 'data.items'). Leave empty if root is an array."},
		},
	}
}

func (s *jsonFileSource) Discover(_ context.Context, cfg dataset.SourceConfig) (*dataset.Schema, error) {
	records, err := readJSONFile(cfg)
	if err != nil {
		return nil, err
	}
	return inferSchema(records), nil
}

func (s *jsonFileSource) Read(ctx context.Context, cfg dataset.SourceConfig) (<-chan dataset.Record, <-chan error) {
	out := make(chan dataset.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		records, err := readJSONFile(cfg)
		if err != nil {
			errCh <- err
			return
		}
		for _, rec := range records {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func readJSONFile(cfg dataset.SourceConfig) ([]dataset.Record, error) {
	filePath := cfg.String("filePath")
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	raw, err = navigate(raw, cfg.String("dataPath"))
	if err != nil {
		return nil, err
	}
	return toRecords(raw), nil
}

// navigate walks a dot-separated path into nested objects.
func navigate(raw any, dataPath string) (any, error) {
	if dataPath == "" {
		return raw, nil
	}
	for _, part := range strings.Split(dataPath, ".") {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid data path: %q not found", part)
		}
		raw = m[part]
	}
	return raw, nil
}

// toRecords converts a JSON array (or single object) into records.
func toRecords(raw any) []dataset.Record {
	switch v := raw.(type) {
	case []any:
		records := make([]dataset.Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, dataset.Record{Data: flattenMap(m)})
			}
		}
		return records
	case map[string]any:
		return []dataset.Record{{Data: flattenMap(v)}}
	default:
		return nil
	}
}

// flattenMap keeps scalar values and serializes nested ones as JSON strings.
func flattenMap(m map[string]any) map[string]any {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, float64, bool, nil:
			flat[k] = v
		default:
			b, _ := json.Marshal(v)
			flat[k] = string(b)
		}
	}
	return flat
}

// inferSchema returns the union of record keys in first-seen order; keys
// first seen in the same record are sorted.
func inferSchema(records []dataset.Record) *dataset.Schema {
	seen := make(map[string]bool)
	schema := &dataset.Schema{}
	for _, rec := range records {
		var fresh []string
		for k := range rec.Data {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		for _, k := range fresh {
			schema.Fields = append(schema.Fields, dataset.Field{Name: k, Type: inferType(rec.Data[k])})
		}
	}
	return schema
}

func inferType(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "text"
	}
}
