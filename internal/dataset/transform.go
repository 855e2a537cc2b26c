package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformConfig is a declarative transform definition.
type TransformConfig struct {
	Type   string         `json:"type"` // "filter" | "rename" | "dedupe" | "sort"
	Config map[string]any `json:"config"`
}

// FilterTransform drops records where the given field does not match the value.
type FilterTransform struct {
	Field string
	Op    string // "eq" | "neq" | "gt" | "lt" | "contains"
	Value any
}

func (t *FilterTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Data[t.Field]
	if !ok {
		return r, false
	}
	switch t.Op {
	case "eq":
		return r, fmt.Sprint(v) == fmt.Sprint(t.Value)
	case "neq":
		return r, fmt.Sprint(v) != fmt.Sprint(t.Value)
	case "contains":
		return r, strings.Contains(fmt.Sprint(v), fmt.Sprint(t.Value))
	case "gt":
		return r, compareValues(v, t.Value) > 0
	case "lt":
		return r, compareValues(v, t.Value) < 0
	default:
		return r, true
	}
}

// RenameTransform renames fields in a record.
type RenameTransform struct {
	Mapping map[string]string // old name → new name
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	for from, to := range t.Mapping {
		if v, ok := r.Data[from]; ok {
			r.Data[to] = v
			delete(r.Data, from)
		}
	}
	return r, true
}

// rename maps a column name through the rename transforms in order.
func rename(name string, ts []Transformer) string {
	for _, t := range ts {
		if rt, ok := t.(*RenameTransform); ok {
			if to, ok := rt.Mapping[name]; ok {
				name = to
			}
		}
	}
	return name
}

// DedupeTransform drops records with duplicate values for the given key.
type DedupeTransform struct {
	Key  string
	seen map[string]bool
}

func NewDedupeTransform(key string) *DedupeTransform {
	return &DedupeTransform{Key: key, seen: make(map[string]bool)}
}

func (t *DedupeTransform) Transform(r Record) (Record, bool) {
	v := fmt.Sprint(r.Data[t.Key])
	if t.seen[v] {
		return r, false
	}
	t.seen[v] = true
	return r, true
}

// SortTransform sorts all collected records by a field. It passes records
// through while streaming; Collect applies the sort afterwards.
type SortTransform struct {
	Field     string
	Direction string // "asc" | "desc"
}

func (t *SortTransform) Transform(r Record) (Record, bool) { return r, true }

// BuildTransformers converts declarative configs into Transformers.
func BuildTransformers(configs []TransformConfig) ([]Transformer, error) {
	var ts []Transformer
	for _, tc := range configs {
		switch tc.Type {
		case "filter":
			field, _ := tc.Config["field"].(string)
			op, _ := tc.Config["op"].(string)
			if field == "" || op == "" {
				return nil, fmt.Errorf("filter needs field and op")
			}
			ts = append(ts, &FilterTransform{Field: field, Op: op, Value: tc.Config["value"]})

		case "rename":
			mapping, ok := tc.Config["mapping"].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rename needs a mapping object")
			}
			m := make(map[string]string, len(mapping))
			for k, v := range mapping {
				m[k] = fmt.Sprint(v)
			}
			ts = append(ts, &RenameTransform{Mapping: m})

		case "dedupe":
			key, _ := tc.Config["key"].(string)
			if key == "" {
				return nil, fmt.Errorf("dedupe needs a key")
			}
			ts = append(ts, NewDedupeTransform(key))

		case "sort":
			field, _ := tc.Config["field"].(string)
			direction, _ := tc.Config["direction"].(string)
			if field == "" {
				return nil, fmt.Errorf("sort needs a field")
			}
			ts = append(ts, &SortTransform{Field: field, Direction: direction})

		default:
			return nil, fmt.Errorf("unknown transform type: %q", tc.Type)
		}
	}
	return ts, nil
}

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		if r, keep = t.Transform(r); !keep {
			return r, false
		}
	}
	return r, true
}

// applyBatchSort sorts records by the last SortTransform in the chain.
func applyBatchSort(records []Record, ts []Transformer) {
	for i := len(ts) - 1; i >= 0; i-- {
		st, ok := ts[i].(*SortTransform)
		if !ok {
			continue
		}
		dir := 1
		if st.Direction == "desc" {
			dir = -1
		}
		sort.SliceStable(records, func(a, b int) bool {
			return compareValues(records[a].Data[st.Field], records[b].Data[st.Field])*dir < 0
		})
		return
	}
}

func compareValues(a, b any) int {
	fa, aOk := toFloat(a)
	fb, bOk := toFloat(b)
	if aOk && bOk {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
