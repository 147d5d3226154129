package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
)

// QueryParams narrows a query. Where and OrderBy are SQL fragments without
// their keywords, e.g. Where: "FrameNr > ? AND Direction = ?".
type QueryParams struct {
	Where   string
	Args    []any
	OrderBy string

	// Limit of 0 returns every row. Offset only applies with a limit.
	Limit  int
	Offset int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) page() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return b.String()
}

// DataReader reads back the tables of a recording. Each table is mapped to
// the row struct it was created from before it can be queried.
type DataReader interface {
	MapTable(tableName string, sampleEntry any)

	// Query returns pointers to rows of the mapped type, plus the number of
	// rows that match the filter regardless of Limit and Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

// rowMapping locates the field of a row struct that receives each column.
type rowMapping struct {
	rowType reflect.Type
	field   map[string]int
}

func newRowMapping(sample any) rowMapping {
	t := reflect.TypeOf(sample)

	m := rowMapping{rowType: t, field: make(map[string]int)}
	for _, name := range structs.Names(sample) {
		f, _ := t.FieldByName(name)
		m.field[name] = f.Index[0]
	}

	return m
}

// targets returns scan destinations for one row. Columns without a field
// are read into a throwaway value.
func (m rowMapping) targets(row reflect.Value, columns []string) []any {
	dst := make([]any, len(columns))

	for i, c := range columns {
		if idx, ok := m.field[c]; ok {
			dst[i] = row.Field(idx).Addr().Interface()
			continue
		}

		dst[i] = new(any)
	}

	return dst
}

type sqliteReader struct {
	db       *sql.DB
	mappings map[string]rowMapping
}

// NewReader opens a recording file.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbFilename)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:       db,
		mappings: make(map[string]rowMapping),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.mappings[tableName] = newRowMapping(sampleEntry)
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	m, ok := r.mappings[tableName]
	if !ok {
		return nil, 0, errors.Errorf("table %s is not mapped", tableName)
	}

	var total int

	count := "SELECT COUNT(*) FROM " + tableName + params.filter()
	if err := r.db.QueryRowContext(ctx, count, params.Args...).
		Scan(&total); err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", tableName)
	}

	query := "SELECT * FROM " + tableName + params.filter() + params.page()

	rows, err := r.db.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", tableName)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading columns")
	}

	var results []any

	for rows.Next() {
		row := reflect.New(m.rowType)

		if err := rows.Scan(m.targets(row.Elem(), columns)...); err != nil {
			return nil, 0, errors.Wrapf(err, "scanning %s", tableName)
		}

		results = append(results, row.Interface())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrapf(err, "reading %s", tableName)
	}

	return results, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

// QueryRows maps the table to T and returns the matching rows by value.
func QueryRows[T any](
	ctx context.Context,
	r DataReader,
	tableName string,
	params QueryParams,
) ([]T, error) {
	var sample T
	r.MapTable(tableName, sample)

	results, _, err := r.Query(ctx, tableName, params)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0, len(results))
	for _, res := range results {
		rows = append(rows, *res.(*T))
	}

	return rows, nil
}
