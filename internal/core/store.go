package core

// store.go adapts pgxpool to the pipeline's Store interface and owns table
// setup. Table creation is idempotent: CREATE TABLE IF NOT EXISTS per schema,
// so repeat invocation is a no-op rather than an error.

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStore adapts *pgxpool.Pool to Store.
type PoolStore struct {
	Pool *pgxpool.Pool
}

// NewStore wraps a pgx connection pool as a Store.
func NewStore(pool *pgxpool.Pool) PoolStore {
	return PoolStore{Pool: pool}
}

func (p PoolStore) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return p.Pool.Exec(ctx, sql, args...)
}

func (p PoolStore) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.Pool.Query(ctx, sql, args...)
}

func (p PoolStore) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.Pool.QueryRow(ctx, sql, args...)
}

func (p PoolStore) Begin(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}

// EnsureTables creates one table per registered schema if it does not
// already exist. Safe to invoke on every startup.
func EnsureTables(ctx context.Context, db DBTX) error {
	for _, schema := range All() {
		if _, err := db.Exec(ctx, createTableStatement(schema)); err != nil {
			return fmt.Errorf("create table %s: %w", schema.Name, err)
		}
	}
	return nil
}

// createTableStatement builds the idempotent DDL for one schema: an identity
// primary key followed by the schema's fields in order.
func createTableStatement(schema Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdentifier(schema.Name))
	fmt.Fprintf(&b, "\t%s BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY", quoteIdentifier(schema.IDColumn))
	for _, f := range schema.Fields {
		fmt.Fprintf(&b, ",\n\t%s %s", quoteIdentifier(f.Column), sqlType(f.Kind))
	}
	b.WriteString("\n)")
	return b.String()
}

func sqlType(kind FieldKind) string {
	switch kind {
	case KindDatetime:
		return "TIMESTAMP"
	case KindDuration:
		return "BIGINT"
	default:
		return "TEXT"
	}
}
