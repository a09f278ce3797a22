package core

// Test doubles for the store interfaces. The fake transaction buffers
// inserts and only publishes them to the fake store on Commit, so tests can
// observe atomicity the same way a database would.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type insertedRow struct {
	SQL    string
	Values []any
}

type fakeStore struct {
	rows  []insertedRow // committed rows only
	execs []string      // direct (non-tx) statements, e.g. DDL

	// failOnInsert makes the Nth insert inside a transaction fail (1-based).
	failOnInsert int

	begun      int
	committed  int
	rolledBack int
}

func (f *fakeStore) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("EXEC"), nil
}

func (f *fakeStore) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (f *fakeStore) Begin(context.Context) (Tx, error) {
	f.begun++
	return &fakeTx{store: f}, nil
}

type fakeTx struct {
	store   *fakeStore
	pending []insertedRow
	done    bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if strings.HasPrefix(sql, "INSERT") {
		if t.store.failOnInsert > 0 && len(t.pending)+1 == t.store.failOnInsert {
			return pgconn.CommandTag{}, fmt.Errorf("constraint violation")
		}
		t.pending = append(t.pending, insertedRow{SQL: sql, Values: args})
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (t *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.store.committed++
	t.store.rows = append(t.store.rows, t.pending...)
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.rolledBack++
	return nil
}
