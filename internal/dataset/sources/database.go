package sources

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"reports/internal/dataset"
	"reports/internal/dbclient"
)

// ConnectorFunc opens a connector for a configured connection name.
type ConnectorFunc func(name string) (dbclient.Connector, error)

var (
	connectorMu sync.RWMutex
	openConn    ConnectorFunc
)

// SetConnectorFunc is called at startup with the config-backed opener.
func SetConnectorFunc(fn ConnectorFunc) {
	connectorMu.Lock()
	defer connectorMu.Unlock()
	openConn = fn
}

func connect(name string) (dbclient.Connector, error) {
	connectorMu.RLock()
	fn := openConn
	connectorMu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("database connections not configured")
	}
	return fn(name)
}

// databaseSource runs a read query against a named connection.
type databaseSource struct{}

func init() { dataset.RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() dataset.SourceSpec {
	return dataset.SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []dataset.ConfigField{
			{Key: "connection", Label: "Connection", Type: "connection", Required: true, Help: "Connection name from the config file"},
			{Key: "query", Label: "Query", Type: "textarea", Required: true, Help: "SELECT statement, or a MongoDB find/aggregate JSON document"},
			{Key: "maxRows", Label: "Max Rows", Type: "string", Default: "1000", Help: "Rows fetched from the database"},
		},
	}
}

func resolveDBConfig(cfg dataset.SourceConfig) (conn, query string, maxRows int, err error) {
	conn, query = cfg.String("connection"), cfg.String("query")
	if conn == "" || query == "" {
		return "", "", 0, fmt.Errorf("connection and query are required")
	}
	maxRows = 1000
	switch v := cfg["maxRows"].(type) {
	case float64:
		maxRows = int(v)
	case int:
		maxRows = v
	case string:
		if n, convErr := strconv.Atoi(v); convErr == nil {
			maxRows = n
		}
	}
	return conn, query, maxRows, nil
}

func (s *databaseSource) Discover(ctx context.Context, cfg dataset.SourceConfig) (*dataset.Schema, error) {
	name, query, _, err := resolveDBConfig(cfg)
	if err != nil {
		return nil, err
	}
	c, err := connect(name)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	page, err := c.Execute(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	schema := &dataset.Schema{Fields: make([]dataset.Field, len(page.Columns))}
	for i, col := range page.Columns {
		schema.Fields[i] = dataset.Field{Name: col, Type: "text"}
	}
	return schema, nil
}

func (s *databaseSource) Read(ctx context.Context, cfg dataset.SourceConfig) (<-chan dataset.Record, <-chan error) {
	out := make(chan dataset.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		name, query, maxRows, err := resolveDBConfig(cfg)
		if err != nil {
			errCh <- err
			return
		}
		c, err := connect(name)
		if err != nil {
			errCh <- err
			return
		}
		defer c.Close()

		page, err := dbclient.QueryAll(ctx, c, query, maxRows)
		if err != nil {
			errCh <- fmt.Errorf("execute: %w", err)
			return
		}
		for _, row := range page.Rows {
			data := make(map[string]any, len(page.Columns))
			for i, col := range page.Columns {
				if i < len(row) {
					data[col] = row[i]
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

// Describe pings the named connection and lists its tables and columns.
func Describe(ctx context.Context, name string) (*dbclient.SchemaInfo, error) {
	c, err := connect(name)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	if err := c.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	return c.Introspect(ctx)
}
