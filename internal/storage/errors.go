package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"oba/internal/core"
)

// ConstraintError reports a write rejected by a unique, foreign-key, not-null
// or check constraint. It matches core.ErrConflict.
type ConstraintError struct {
	Op   string
	Code int
	Err  error
}

func (e *ConstraintError) Error() string {
	return e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func (e *ConstraintError) Is(target error) bool {
	return target == core.ErrConflict
}

// IsForeignKey reports whether the violated constraint is a foreign key.
func (e *ConstraintError) IsForeignKey() bool {
	return e.Code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// IsUnique reports whether the violated constraint is a uniqueness one.
func (e *ConstraintError) IsUnique() bool {
	return e.Code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || e.Code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// classify maps driver errors onto the core taxonomy. Anything it does not
// recognise is wrapped unchanged and treated upstream as an internal fault.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &ConstraintError{Op: op, Code: sqliteErr.Code(), Err: sqliteErr}
	}
	return fmt.Errorf("%s: %w", op, err)
}
