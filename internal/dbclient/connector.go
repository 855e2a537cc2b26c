// Package dbclient runs read-only queries against external databases so
// their results can fill table blocks.
package dbclient

import (
	"context"
	"errors"
	"fmt"

	"reports/internal/domain"
)

// DefaultFetchSize is used when a caller passes fetchSize <= 0.
const DefaultFetchSize = 50

// ErrWriteQuery is returned when a query would modify the database.
var ErrWriteQuery = errors.New("only read queries are allowed")

// QueryPage is a batch of rows fetched from a query cursor.
type QueryPage struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	TotalFetched int      `json:"totalFetched"` // total rows fetched so far
	HasMore      bool     `json:"hasMore"`      // cursor has more rows
}

// SchemaInfo lists the tables (or collections) of a database.
type SchemaInfo struct {
	Tables []TableInfo `json:"tables"`
}

// TableInfo describes a table/collection.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes a column/field.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Connector abstracts read access to an external database.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// Execute runs a read query and returns the first batch of rows.
	Execute(ctx context.Context, query string, fetchSize int) (*QueryPage, error)

	// FetchMore continues reading from the open cursor.
	FetchMore(ctx context.Context, fetchSize int) (*QueryPage, error)

	// Introspect returns the tables and their columns.
	Introspect(ctx context.Context) (*SchemaInfo, error)

	// Close closes the connection and any open cursors.
	Close() error
}

// NewConnector creates a Connector for the given connection.
func NewConnector(conn domain.Connection) (Connector, error) {
	dsn, err := conn.DSN()
	if err != nil {
		return nil, err
	}
	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLConnector("sqlite", dsn)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", dsn)
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", dsn)
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(dsn, conn.Database)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

// QueryAll executes query and drains the cursor, stopping after limit rows
// when limit > 0.
func QueryAll(ctx context.Context, c Connector, query string, limit int) (*QueryPage, error) {
	fetch := 500
	if limit > 0 && limit < fetch {
		fetch = limit
	}
	page, err := c.Execute(ctx, query, fetch)
	if err != nil {
		return nil, err
	}
	all := &QueryPage{Columns: page.Columns, Rows: page.Rows}
	for page.HasMore && (limit <= 0 || len(all.Rows) < limit) {
		if page, err = c.FetchMore(ctx, fetch); err != nil {
			return nil, err
		}
		all.Rows = append(all.Rows, page.Rows...)
	}
	if limit > 0 && len(all.Rows) > limit {
		all.Rows = all.Rows[:limit]
	}
	all.TotalFetched = len(all.Rows)
	all.HasMore = page.HasMore
	return all, nil
}
