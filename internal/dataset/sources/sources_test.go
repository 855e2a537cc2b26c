package sources_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reports/internal/dataset"
	"reports/internal/dataset/sources"
	"reports/internal/dbclient"
	"reports/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListSources(t *testing.T) {
	var types []string
	for _, s := range dataset.ListSources() {
		types = append(types, s.Type)
	}
	want := []string{"csv_file", "database", "http", "json_file"}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestCollectCSV(t *testing.T) {
	path := writeFile(t, "jobs.csv", "site,hours,crew\nNorth,12,A\nSouth,3,B\nEast,7,A\n")

	frame, err := dataset.Collect(context.Background(), "csv_file", dataset.SourceConfig{"filePath": path}, dataset.Options{
		Transforms: []dataset.TransformConfig{
			{Type: "filter", Config: map[string]any{"field": "crew", "op": "eq", "value": "A"}},
			{Type: "sort", Config: map[string]any{"field": "hours"}},
		},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := [][]string{
		{"site", "hours", "crew"},
		{"East", "7", "A"},
		{"North", "12", "A"},
	}
	if diff := cmp.Diff(want, frame.Cells()); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}

func TestCollectCSVColumnsAndLimit(t *testing.T) {
	path := writeFile(t, "jobs.csv", "site;hours\nNorth;12\nSouth;3\nEast;7\n")

	frame, err := dataset.Collect(context.Background(), "csv_file",
		dataset.SourceConfig{"filePath": path, "delimiter": ";"},
		dataset.Options{Columns: []string{"hours", "missing"}, Limit: 2})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := [][]string{{"hours", "missing"}, {"12", ""}, {"3", ""}}
	if diff := cmp.Diff(want, frame.Cells()); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
	if !frame.Truncated {
		t.Error("expected Truncated")
	}
}

func TestCollectJSON(t *testing.T) {
	path := writeFile(t, "data.json", `{"data":{"items":[
		{"name":"pump","qty":2,"ok":true},
		{"name":"valve","qty":1.5,"tags":["a"]}
	]}}`)

	frame, err := dataset.Collect(context.Background(), "json_file",
		dataset.SourceConfig{"filePath": path, "dataPath": "data.items"},
		dataset.Options{Transforms: []dataset.TransformConfig{
			{Type: "rename", Config: map[string]any{"mapping": map[string]any{"qty": "quantity"}}},
		}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := [][]string{
		{"name", "ok", "quantity", "tags"},
		{"pump", "true", "2", ""},
		{"valve", "", "1.5", `["a"]`},
	}
	if diff := cmp.Diff(want, frame.Cells()); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}

func TestCollectHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":1,"name":"north"},{"id":2,"name":"south"}]}`))
	}))
	defer srv.Close()

	cfg := dataset.SourceConfig{
		"url":      srv.URL,
		"headers":  `{"Authorization":"Bearer token"}`,
		"dataPath": "results",
	}
	frame, err := dataset.Collect(context.Background(), "http", cfg, dataset.Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := [][]string{{"id", "name"}, {"1", "north"}, {"2", "south"}}
	if diff := cmp.Diff(want, frame.Cells()); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}

	delete(cfg, "headers")
	if _, err := dataset.Collect(context.Background(), "http", cfg, dataset.Options{}); err == nil {
		t.Error("401 should fail")
	}
}

func TestCollectErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := dataset.Collect(ctx, "ftp", nil, dataset.Options{}); err == nil {
		t.Error("unknown source should fail")
	}
	if _, err := dataset.Collect(ctx, "csv_file", dataset.SourceConfig{}, dataset.Options{}); err == nil {
		t.Error("missing filePath should fail")
	}
	if _, err := dataset.Collect(ctx, "csv_file", dataset.SourceConfig{"filePath": "x"},
		dataset.Options{Transforms: []dataset.TransformConfig{{Type: "explode"}}}); err == nil {
		t.Error("unknown transform should fail")
	}
}

func TestCollectDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ext.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{
		`CREATE TABLE readings (probe TEXT, value REAL)`,
		`INSERT INTO readings VALUES ('p1', 0.5), ('p2', 1.25)`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	db.Close()

	sources.SetConnectorFunc(func(name string) (dbclient.Connector, error) {
		return dbclient.NewConnector(domain.Connection{Name: name, Driver: domain.DatabaseDriverSQLite, Path: path})
	})
	t.Cleanup(func() { sources.SetConnectorFunc(nil) })

	frame, err := dataset.Collect(context.Background(), "database",
		dataset.SourceConfig{"connection": "ext", "query": "SELECT probe, value FROM readings ORDER BY probe"},
		dataset.Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := [][]string{{"probe", "value"}, {"p1", "0.5"}, {"p2", "1.25"}}
	if diff := cmp.Diff(want, frame.Cells()); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}
