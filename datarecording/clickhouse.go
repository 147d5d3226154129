package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locates a ClickHouse server.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string

	// BatchSize defaults to DefaultBatchSize.
	BatchSize   int
	DialTimeout time.Duration
}

type clickHouseTable struct {
	rowType reflect.Type
	columns []string
	rows    []any
}

type clickHouseWriter struct {
	conn      clickhouse.Conn
	tables    map[string]*clickHouseTable
	batchSize int
	pending   int
	closed    bool
}

// NewClickHouse creates a recorder that writes each table into a MergeTree
// table of a ClickHouse database. The server must be reachable.
func NewClickHouse(opts ClickHouseOptions) (DataRecorder, error) {
	if opts.Addr == "" {
		return nil, errors.New("clickhouse address is empty")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", opts.Addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "pinging %s", opts.Addr)
	}

	log.Infof("recording to clickhouse at %s", opts.Addr)

	w := &clickHouseWriter{
		conn:      conn,
		tables:    make(map[string]*clickHouseTable),
		batchSize: opts.BatchSize,
	}

	atexit.Register(func() {
		if err := w.Flush(); err != nil {
			log.Warnf("flush at exit: %v", err)
		}
	})

	return w, nil
}

// clickHouseType maps a row field to a column type.
func clickHouseType(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.Bool:
		return "Bool", true
	case reflect.Int, reflect.Int64:
		return "Int64", true
	case reflect.Int8:
		return "Int8", true
	case reflect.Int16:
		return "Int16", true
	case reflect.Int32:
		return "Int32", true
	case reflect.Uint, reflect.Uint64:
		return "UInt64", true
	case reflect.Uint8:
		return "UInt8", true
	case reflect.Uint16:
		return "UInt16", true
	case reflect.Uint32:
		return "UInt32", true
	case reflect.Float32:
		return "Float32", true
	case reflect.Float64:
		return "Float64", true
	case reflect.String:
		return "String", true
	}

	return "", false
}

// createTableStatement orders the table by its first column.
func createTableStatement(name string, sample any) (string, []string, error) {
	if err := checkStructFields(sample); err != nil {
		return "", nil, err
	}

	names := structs.Names(sample)
	if len(names) == 0 {
		return "", nil, errors.Errorf("entry %T has no exported fields", sample)
	}

	t := reflect.TypeOf(sample)
	defs := make([]string, 0, len(names))

	for _, n := range names {
		f, _ := t.FieldByName(n)
		typ, _ := clickHouseType(f.Type.Kind())
		defs = append(defs, fmt.Sprintf("%s %s", n, typ))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY %s",
		name, strings.Join(defs, ", "), names[0])

	return stmt, names, nil
}

func (w *clickHouseWriter) CreateTable(tableName string, sampleEntry any) error {
	if _, exists := w.tables[tableName]; exists {
		return errors.Errorf("table %s already exists", tableName)
	}

	stmt, columns, err := createTableStatement(tableName, sampleEntry)
	if err != nil {
		return err
	}

	if err := w.conn.Exec(context.Background(), stmt); err != nil {
		return errors.Wrapf(err, "creating table %s", tableName)
	}

	w.tables[tableName] = &clickHouseTable{
		rowType: reflect.TypeOf(sampleEntry),
		columns: columns,
	}

	return nil
}

func (w *clickHouseWriter) InsertData(tableName string, entry any) error {
	t, exists := w.tables[tableName]
	if !exists {
		return errors.Errorf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.rowType {
		return errors.Errorf("table %s stores %s, got %T",
			tableName, t.rowType, entry)
	}

	t.rows = append(t.rows, entry)

	w.pending++
	if w.pending >= w.batchSize {
		return w.Flush()
	}

	return nil
}

func (w *clickHouseWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush sends one batch per table. Tables already sent stay sent if a later
// table fails.
func (w *clickHouseWriter) Flush() error {
	if w.pending == 0 || w.closed {
		return nil
	}

	ctx := context.Background()

	for _, name := range w.ListTables() {
		t := w.tables[name]
		if len(t.rows) == 0 {
			continue
		}

		batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf(
			"INSERT INTO %s (%s)", name, strings.Join(t.columns, ", ")))
		if err != nil {
			return errors.Wrapf(err, "preparing batch for %s", name)
		}

		for _, row := range t.rows {
			if err := batch.Append(structs.Values(row)...); err != nil {
				_ = batch.Abort()
				return errors.Wrapf(err, "appending to %s", name)
			}
		}

		if err := batch.Send(); err != nil {
			return errors.Wrapf(err, "sending batch for %s", name)
		}

		t.rows = nil
	}

	w.pending = 0

	return nil
}

func (w *clickHouseWriter) Close() error {
	if w.closed {
		return nil
	}

	if err := w.Flush(); err != nil {
		return err
	}

	w.closed = true

	return w.conn.Close()
}
