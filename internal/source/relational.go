package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver

	"github.com/54b3r/ragbridge/internal/rag"
)

// relationalExtractor pulls rows from a SQL database through database/sql.
// PostgreSQL and MySQL share this implementation; only the registered driver
// name differs.
type relationalExtractor struct {
	params ExtractParams
	// driver is the database/sql driver name ("pgx" or "mysql").
	driver string
	// source names the provider in error messages.
	source string
}

// Extract opens a connection, runs the bounded SELECT, and converts each row
// into a RawRecord with all values reduced to plain Go types.
func (r *relationalExtractor) Extract(ctx context.Context) ([]rag.RawRecord, error) {
	if r.params.Limit <= 0 {
		return nil, nil
	}

	db, err := sql.Open(r.driver, r.params.ConnectionURI)
	if err != nil {
		// sql.Open only fails when the driver is not registered in this
		// build — an actionable deployment problem, not a query failure.
		if strings.Contains(err.Error(), "unknown driver") {
			return nil, fmt.Errorf("%s: %w: driver %q is not compiled into this binary",
				r.source, rag.ErrProviderUnavailable, r.driver)
		}
		return nil, rag.WrapError(rag.ErrExtractionFailed, r.source+" extraction", err)
	}
	defer db.Close()

	records, err := queryRecords(ctx, db, r.params.Collection, r.params.Filter, r.params.Limit)
	if err != nil {
		return nil, rag.WrapError(rag.ErrExtractionFailed, r.source+" extraction", err)
	}
	return records, nil
}

// buildQuery assembles the bounded SELECT. The filter fragment is appended
// verbatim after WHERE with no parameterization — callers are trusted with
// it. Known limitation: a hostile filter is an injection vector; the verbatim
// concatenation is part of the adapter contract and is kept as-is.
func buildQuery(table, filter string, limit int) string {
	q := fmt.Sprintf("SELECT * FROM %s", table)
	if filter != "" {
		q += fmt.Sprintf(" WHERE %s", filter)
	}
	q += fmt.Sprintf(" LIMIT %d", limit)
	return q
}

// queryRecords runs the SELECT against an open handle and scans every row
// into a RawRecord keyed by column name.
func queryRecords(ctx context.Context, db *sql.DB, table, filter string, limit int) ([]rag.RawRecord, error) {
	rows, err := db.QueryContext(ctx, buildQuery(table, filter, limit))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var records []rag.RawRecord
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		record := make(rag.RawRecord, len(columns))
		for i, col := range columns {
			record[col] = plainValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return records, nil
}

// plainValue reduces driver-specific scan results to plain values so nothing
// backend-specific crosses the adapter boundary. Byte slices and timestamps
// become strings; everything else passes through.
func plainValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
