package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoConnector implements Connector for MongoDB.
type mongoConnector struct {
	client *mongo.Client
	dbName string

	mu      sync.Mutex
	cursor  *mongo.Cursor
	fetched int
}

// mongoQuery is the JSON form of a MongoDB read. Operation is "find"
// (default) or "aggregate".
type mongoQuery struct {
	Collection string         `json:"collection"`
	Operation  string         `json:"operation,omitempty"`
	Filter     map[string]any `json:"filter,omitempty"`
	Projection map[string]any `json:"projection,omitempty"`
	Sort       map[string]any `json:"sort,omitempty"`
	Limit      int64          `json:"limit,omitempty"`
	Pipeline   []any          `json:"pipeline,omitempty"`
}

func newMongoConnector(uri, dbName string) (*mongoConnector, error) {
	if dbName == "" {
		dbName = "test"
	}
	log.Debug("connecting to mongo", "uri", redactURI(uri), "database", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName}, nil
}

func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "mongodb://***"
	}
	return u.Redacted()
}

// unmarshalEJSON re-encodes a field through Extended JSON so values like
// {"$oid": ...} and {"$date": ...} become BSON types.
func unmarshalEJSON(field map[string]any) map[string]any {
	if field == nil {
		return nil
	}
	raw, err := json.Marshal(field)
	if err != nil {
		return field
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		log.Warn("extended json parse failed, using plain json", "err", err)
		return field
	}
	result := make(map[string]any, len(doc))
	for _, elem := range doc {
		result[elem.Key] = elem.Value
	}
	return result
}

func parseMongoQuery(query string) (mongoQuery, error) {
	var mq mongoQuery
	if err := json.Unmarshal([]byte(query), &mq); err != nil {
		return mq, fmt.Errorf("invalid query JSON: %w", err)
	}
	if mq.Collection == "" {
		return mq, fmt.Errorf("query must specify 'collection'")
	}
	switch mq.Operation {
	case "":
		mq.Operation = "find"
	case "find", "aggregate":
	default:
		return mq, fmt.Errorf("%w: operation %q", ErrWriteQuery, mq.Operation)
	}
	mq.Filter = unmarshalEJSON(mq.Filter)
	mq.Projection = unmarshalEJSON(mq.Projection)
	mq.Sort = unmarshalEJSON(mq.Sort)
	return mq, nil
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoConnector) Execute(ctx context.Context, query string, fetchSize int) (*QueryPage, error) {
	mq, err := parseMongoQuery(query)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCursorLocked(ctx)

	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}

	qctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(mq.Collection)
	var cursor *mongo.Cursor
	switch mq.Operation {
	case "aggregate":
		pipeline := mq.Pipeline
		if pipeline == nil {
			pipeline = []any{}
		}
		cursor, err = coll.Aggregate(qctx, pipeline)
	default:
		opts := options.Find().SetBatchSize(int32(fetchSize))
		if mq.Projection != nil {
			opts.SetProjection(mq.Projection)
		}
		if mq.Sort != nil {
			opts.SetSort(mq.Sort)
		}
		if mq.Limit > 0 {
			opts.SetLimit(mq.Limit)
		}
		filter := mq.Filter
		if filter == nil {
			filter = map[string]any{}
		}
		cursor, err = coll.Find(qctx, filter, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mq.Operation, err)
	}

	m.cursor = cursor
	m.fetched = 0
	return m.fetchBatchLocked(ctx, fetchSize)
}

func (m *mongoConnector) FetchMore(ctx context.Context, fetchSize int) (*QueryPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cursor == nil {
		return nil, fmt.Errorf("no active cursor: execute a query first")
	}
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	return m.fetchBatchLocked(ctx, fetchSize)
}

func (m *mongoConnector) fetchBatchLocked(ctx context.Context, fetchSize int) (*QueryPage, error) {
	var docs []bson.D
	for i := 0; i < fetchSize; i++ {
		if !m.cursor.Next(ctx) {
			break
		}
		var doc bson.D
		if err := m.cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := m.cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	m.fetched += len(docs)

	columns := documentColumns(docs)
	rows := make([][]any, 0, len(docs))
	for _, doc := range docs {
		row := make([]any, len(columns))
		byKey := make(map[string]any, len(doc))
		for _, elem := range doc {
			byKey[elem.Key] = elem.Value
		}
		for j, col := range columns {
			if v, ok := byKey[col]; ok {
				row[j] = fmt.Sprintf("%v", v)
			}
		}
		rows = append(rows, row)
	}

	hasMore := len(docs) == fetchSize
	if !hasMore {
		m.closeCursorLocked(ctx)
	}
	return &QueryPage{Columns: columns, Rows: rows, TotalFetched: m.fetched, HasMore: hasMore}, nil
}

// documentColumns returns the union of keys: _id first, then alphabetical.
func documentColumns(docs []bson.D) []string {
	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for _, elem := range doc {
			if !seen[elem.Key] {
				seen[elem.Key] = true
				columns = append(columns, elem.Key)
			}
		}
	}
	sort.SliceStable(columns, func(i, j int) bool {
		if columns[i] == "_id" {
			return true
		}
		if columns[j] == "_id" {
			return false
		}
		return columns[i] < columns[j]
	})
	return columns
}

func (m *mongoConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db := m.client.Database(m.dbName)
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)

	schema := &SchemaInfo{}
	for _, name := range names {
		// Sample one document to extract field names.
		var doc bson.M
		err := db.Collection(name).FindOne(ctx, bson.M{}).Decode(&doc)
		if err != nil {
			schema.Tables = append(schema.Tables, TableInfo{Name: name})
			continue
		}
		cols := make([]ColumnInfo, 0, len(doc))
		for k, v := range doc {
			cols = append(cols, ColumnInfo{Name: k, Type: strings.TrimPrefix(fmt.Sprintf("%T", v), "bson.")})
		}
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
		schema.Tables = append(schema.Tables, TableInfo{Name: name, Columns: cols})
	}
	return schema, nil
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.mu.Lock()
	m.closeCursorLocked(ctx)
	m.mu.Unlock()
	return m.client.Disconnect(ctx)
}

func (m *mongoConnector) closeCursorLocked(ctx context.Context) {
	if m.cursor != nil {
		m.cursor.Close(ctx)
		m.cursor = nil
	}
}
