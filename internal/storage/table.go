package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"oba/internal/core"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// Table is the CRUD surface shared by every entity table. E is the persisted
// row shape (with id), F the writable form (without id). The column list
// excludes id and must match the order of bind's output and scan's input
// after the id.
type Table[E any, F any] struct {
	db      *sql.DB
	name    string
	columns []string
	scan    func(rowScanner) (E, error)
	bind    func(F) []any
}

func newTable[E any, F any](db *sql.DB, name string, columns []string, scan func(rowScanner) (E, error), bind func(F) []any) *Table[E, F] {
	return &Table[E, F]{db: db, name: name, columns: columns, scan: scan, bind: bind}
}

// Name returns the underlying table name.
func (t *Table[E, F]) Name() string {
	return t.name
}

func (t *Table[E, F]) selection() string {
	return "id, " + strings.Join(t.columns, ", ")
}

// Insert writes a new row and returns it, id included, from the same
// statement.
func (t *Table[E, F]) Insert(ctx context.Context, form F) (E, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.name, strings.Join(t.columns, ", "), placeholders, t.selection())

	e, err := t.scan(t.db.QueryRowContext(ctx, query, t.bind(form)...))
	if err != nil {
		var zero E
		return zero, classify("insert into "+t.name, err)
	}
	return e, nil
}

func (t *Table[E, F]) Get(ctx context.Context, id int64) (E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.selection(), t.name)
	e, err := t.scan(t.db.QueryRowContext(ctx, query, id))
	if err != nil {
		var zero E
		return zero, classify(fmt.Sprintf("get %s %d", t.name, id), err)
	}
	return e, nil
}

// Last returns the row with the highest id.
func (t *Table[E, F]) Last(ctx context.Context) (E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC LIMIT 1", t.selection(), t.name)
	e, err := t.scan(t.db.QueryRowContext(ctx, query))
	if err != nil {
		var zero E
		return zero, classify("last "+t.name, err)
	}
	return e, nil
}

// List returns every row in insertion order.
func (t *Table[E, F]) List(ctx context.Context) ([]E, error) {
	return t.ListWhere(ctx, "")
}

// ListWhere returns the rows matching a SQL predicate, in insertion order.
// The predicate is trusted: callers pass constants and bind values as args.
func (t *Table[E, F]) ListWhere(ctx context.Context, where string, args ...any) ([]E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", t.selection(), t.name)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id ASC"

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list "+t.name, err)
	}
	defer rows.Close()

	items := make([]E, 0)
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, classify("scan "+t.name, err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate "+t.name, err)
	}
	return items, nil
}

// Update overwrites every column of the row and returns the stored result.
// A missing id yields core.ErrNotFound.
func (t *Table[E, F]) Update(ctx context.Context, id int64, form F) (E, error) {
	assignments := make([]string, len(t.columns))
	for i, c := range t.columns {
		assignments[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? RETURNING %s",
		t.name, strings.Join(assignments, ", "), t.selection())

	args := append(t.bind(form), id)
	e, err := t.scan(t.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero E
		return zero, classify(fmt.Sprintf("update %s %d", t.name, id), err)
	}
	return e, nil
}

// Delete removes one row. Rows still referenced by a foreign key are kept and
// a ConstraintError is returned; a missing id yields core.ErrNotFound.
func (t *Table[E, F]) Delete(ctx context.Context, id int64) error {
	op := fmt.Sprintf("delete %s %d", t.name, id)
	res, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id)
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

// DeleteAll empties the table. It never cascades: if any row is still
// referenced the whole statement fails and nothing is removed.
func (t *Table[E, F]) DeleteAll(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
		return classify("delete all "+t.name, err)
	}
	return nil
}

// Count returns the number of rows.
func (t *Table[E, F]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name).Scan(&n); err != nil {
		return 0, classify("count "+t.name, err)
	}
	return n, nil
}
