// Package sheets defines the spreadsheet mirror of the ledger.
package sheets

import (
	"context"
	"strconv"

	"oba/internal/core"
)

type (
	// LedgerMirror appends ledger rows to an external spreadsheet. It is
	// append-only: updates produce a new row rather than editing the old one.
	LedgerMirror interface {
		AppendTransaction(ctx context.Context, row TransactionRow) (rowRef string, err error)
		AppendFill(ctx context.Context, row FillRow) (rowRef string, err error)
	}

	// MirrorReader reads mirrored rows back.
	MirrorReader interface {
		ListTransactions(ctx context.Context) ([]TransactionRow, error)
		ListFills(ctx context.Context) ([]FillRow, error)
	}
)

// TransactionRow is one transaction as it appears in the sheet, with the
// account and bucket resolved to names. Bucket is empty when unattributed.
type TransactionRow struct {
	ID      int64
	Date    core.DateTime
	Name    string
	Amount  core.Amount
	Account string
	Bucket  string
}

// FillRow is one fill as it appears in the sheet.
type FillRow struct {
	ID     int64
	Date   core.DateTime
	Amount core.Amount
	Bucket string
}

// Values returns the cells in column order A..F.
func (r TransactionRow) Values() []any {
	return []any{strconv.FormatInt(r.ID, 10), r.Date.String(), r.Name, r.Amount.String(), r.Account, r.Bucket}
}

// Values returns the cells in column order A..D.
func (r FillRow) Values() []any {
	return []any{strconv.FormatInt(r.ID, 10), r.Date.String(), r.Amount.String(), r.Bucket}
}
