package dbclient

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"reports/internal/domain"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ext.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE invoices (id INTEGER PRIMARY KEY, client TEXT, amount REAL)`,
		`INSERT INTO invoices (client, amount) VALUES ('Acme', 120.5), ('Globex', 80), ('Initech', 42)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed %q: %v", s, err)
		}
	}
	return path
}

func TestSQLiteConnector(t *testing.T) {
	ctx := context.Background()
	c, err := NewConnector(domain.Connection{Name: "ext", Driver: domain.DatabaseDriverSQLite, Path: seedSQLite(t)})
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	defer c.Close()

	if err := c.TestConnection(ctx); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}

	page, err := c.Execute(ctx, "SELECT client, amount FROM invoices ORDER BY id", 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(page.Rows) != 2 || !page.HasMore {
		t.Fatalf("first page = %+v", page)
	}
	if page.Columns[0] != "client" || page.Rows[0][0] != "Acme" {
		t.Errorf("unexpected first row: %v %v", page.Columns, page.Rows[0])
	}

	page, err = c.FetchMore(ctx, 2)
	if err != nil {
		t.Fatalf("FetchMore: %v", err)
	}
	if len(page.Rows) != 1 || page.HasMore || page.TotalFetched != 3 {
		t.Errorf("second page = %+v", page)
	}
	if _, err := c.FetchMore(ctx, 2); err == nil {
		t.Error("FetchMore after exhaustion should fail")
	}

	schema, err := c.Introspect(ctx)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if len(schema.Tables) != 1 || schema.Tables[0].Name != "invoices" || len(schema.Tables[0].Columns) != 3 {
		t.Errorf("schema = %+v", schema)
	}
}

func TestWriteQueriesRejected(t *testing.T) {
	c, err := NewConnector(domain.Connection{Driver: domain.DatabaseDriverSQLite, Path: seedSQLite(t)})
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	defer c.Close()

	for _, q := range []string{"DELETE FROM invoices", "  update invoices set amount = 0", "DROP TABLE invoices"} {
		if _, err := c.Execute(context.Background(), q, 10); !errors.Is(err, ErrWriteQuery) {
			t.Errorf("Execute(%q) err = %v", q, err)
		}
	}
}

func TestQueryAll(t *testing.T) {
	ctx := context.Background()
	c, err := NewConnector(domain.Connection{Driver: domain.DatabaseDriverSQLite, Path: seedSQLite(t)})
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	defer c.Close()

	all, err := QueryAll(ctx, c, "SELECT client FROM invoices ORDER BY id", 0)
	if err != nil || len(all.Rows) != 3 || all.HasMore {
		t.Fatalf("QueryAll = %+v, %v", all, err)
	}
	limited, err := QueryAll(ctx, c, "SELECT client FROM invoices ORDER BY id", 2)
	if err != nil || len(limited.Rows) != 2 || limited.Rows[1][0] != "Globex" {
		t.Errorf("QueryAll limit = %+v, %v", limited, err)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewConnector(domain.Connection{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestParseMongoQuery(t *testing.T) {
	mq, err := parseMongoQuery(`{"collection":"jobs","filter":{"status":"open"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mq.Operation != "find" || mq.Filter["status"] != "open" {
		t.Errorf("parsed = %+v", mq)
	}
	if _, err := parseMongoQuery(`{"collection":"jobs","operation":"deleteMany"}`); !errors.Is(err, ErrWriteQuery) {
		t.Errorf("deleteMany err = %v", err)
	}
	if _, err := parseMongoQuery(`{"filter":{}}`); err == nil {
		t.Error("missing collection should fail")
	}
}

func TestDocumentColumns(t *testing.T) {
	docs := []bson.D{
		{{Key: "name", Value: "a"}, {Key: "_id", Value: 1}},
		{{Key: "age", Value: 3}},
	}
	got := documentColumns(docs)
	want := []string{"_id", "age", "name"}
	if len(got) != len(want) {
		t.Fatalf("columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("columns = %v, want %v", got, want)
			break
		}
	}
}
