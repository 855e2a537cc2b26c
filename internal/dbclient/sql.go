package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// readPrefixes are the statement keywords accepted by Execute.
var readPrefixes = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "PRAGMA", "VALUES"}

// dialect holds the catalog queries of one SQL engine. columns returns the
// query and its arguments for one table.
type dialect struct {
	tables  string
	columns func(table string) (string, []any)
}

var dialects = map[string]dialect{
	"postgres": {
		tables: `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`,
		columns: func(t string) (string, []any) {
			return `SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, []any{t}
		},
	},
	"mysql": {
		tables: `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`,
		columns: func(t string) (string, []any) {
			return `SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`, []any{t}
		},
	},
	"sqlite": {
		tables: `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		columns: func(t string) (string, []any) {
			return `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, []any{t}
		},
	},
}

// sqlConnector serves MySQL, Postgres and SQLite through database/sql.
type sqlConnector struct {
	db      *sql.DB
	dialect dialect

	mu  sync.Mutex
	cur *sqlCursor
}

// sqlCursor is an open result set that outlives Execute.
type sqlCursor struct {
	rows    *sql.Rows
	cancel  context.CancelFunc
	columns []string
	fetched int
}

func newSQLConnector(driverName, dsn string) (*sqlConnector, error) {
	d, ok := dialects[driverName]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s", driverName)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)
	return &sqlConnector{db: db, dialect: d}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func isReadQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, p := range readPrefixes {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	return false
}

func (c *sqlConnector) Execute(ctx context.Context, query string, fetchSize int) (*QueryPage, error) {
	if !isReadQuery(query) {
		return nil, ErrWriteQuery
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.close()
	c.cur = nil

	qctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	rows, err := c.db.QueryContext(qctx, query)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		cancel()
		return nil, fmt.Errorf("columns: %w", err)
	}
	c.cur = &sqlCursor{rows: rows, cancel: cancel, columns: cols}
	return c.nextLocked(fetchSize)
}

func (c *sqlConnector) FetchMore(_ context.Context, fetchSize int) (*QueryPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return nil, fmt.Errorf("no active cursor: execute a query first")
	}
	return c.nextLocked(fetchSize)
}

// nextLocked reads one batch and drops the cursor once it is drained.
func (c *sqlConnector) nextLocked(fetchSize int) (*QueryPage, error) {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	page, err := c.cur.next(fetchSize)
	if err != nil || !page.HasMore {
		c.cur.close()
		c.cur = nil
	}
	return page, err
}

func (cur *sqlCursor) next(n int) (*QueryPage, error) {
	page := &QueryPage{Columns: cur.columns}
	width := len(cur.columns)
	for len(page.Rows) < n && cur.rows.Next() {
		values := make([]any, width)
		ptrs := make([]any, width)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := cur.rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = scalar(v)
		}
		page.Rows = append(page.Rows, values)
	}
	if err := cur.rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	cur.fetched += len(page.Rows)
	page.TotalFetched = cur.fetched
	page.HasMore = len(page.Rows) == n
	return page, nil
}

func (cur *sqlCursor) close() {
	if cur == nil {
		return
	}
	cur.rows.Close()
	cur.cancel()
}

// scalar converts a driver value into a JSON-friendly value.
func scalar(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

func (c *sqlConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	names, err := c.strings(ctx, c.dialect.tables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	schema := &SchemaInfo{}
	for _, name := range names {
		cols, err := c.tableColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, TableInfo{Name: name, Columns: cols})
	}
	return schema, nil
}

func (c *sqlConnector) tableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	query, args := c.dialect.columns(table)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var ci ColumnInfo
		if err := rows.Scan(&ci.Name, &ci.Type); err != nil {
			return nil, err
		}
		cols = append(cols, ci)
	}
	return cols, rows.Err()
}

func (c *sqlConnector) strings(ctx context.Context, query string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *sqlConnector) Close() error {
	c.mu.Lock()
	c.cur.close()
	c.cur = nil
	c.mu.Unlock()
	return c.db.Close()
}
