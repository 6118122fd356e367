// Package export writes the whole ledger into an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"oba/internal/core"
	"oba/internal/services"
)

// Sheet names, in workbook order.
const (
	SheetAccounts     = "Accounts"
	SheetBuckets      = "Buckets"
	SheetTransactions = "Transactions"
	SheetFills        = "Fills"
	SheetBalances     = "Balances"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteWorkbook writes one sheet per table and a Balances sheet with the
// all-time balance of every bucket and account. Amounts are numeric cells.
func WriteWorkbook(ctx context.Context, ledger *services.Ledger, w io.Writer) error {
	accounts, err := ledger.Accounts.List(ctx)
	if err != nil {
		return err
	}
	buckets, err := ledger.Buckets.List(ctx)
	if err != nil {
		return err
	}
	txs, err := ledger.Transactions.List(ctx)
	if err != nil {
		return err
	}
	fills, err := ledger.Fills.List(ctx)
	if err != nil {
		return err
	}

	accountNames := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	bucketNames := make(map[int64]string, len(buckets))
	for _, b := range buckets {
		bucketNames[b.ID] = b.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	sb := newSheetBuilder(f)

	sb.sheet(SheetAccounts, "ID", "Name")
	for _, a := range accounts {
		sb.row(a.ID, a.Name)
	}

	sb.sheet(SheetBuckets, "ID", "Name")
	for _, b := range buckets {
		sb.row(b.ID, b.Name)
	}

	sb.sheet(SheetTransactions, "ID", "Date", "Name", "Amount", "Account", "Bucket")
	for _, t := range txs {
		bucket := ""
		if t.BucketID != nil {
			bucket = bucketNames[*t.BucketID]
		}
		sb.row(t.ID, t.Date.String(), t.Name, t.Amount.Float64(), accountNames[t.AccountID], bucket)
	}

	sb.sheet(SheetFills, "ID", "Date", "Amount", "Bucket")
	for _, fl := range fills {
		sb.row(fl.ID, fl.Date.String(), fl.Amount.Float64(), bucketNames[fl.BucketID])
	}

	sb.sheet(SheetBalances, "Kind", "Name", "In", "Out", "Balance")
	for _, b := range buckets {
		bal, err := ledger.Balances.Bucket(ctx, b.ID, nil)
		if err != nil {
			return err
		}
		sb.row(core.EntityBucket, b.Name, bal.Filled.Float64(), bal.Spent.Float64(), bal.Remaining.Float64())
	}
	for _, a := range accounts {
		bal, err := ledger.Balances.Account(ctx, a.ID, nil)
		if err != nil {
			return err
		}
		sb.row(core.EntityAccount, a.Name, bal.Income.Float64(), bal.Expenses.Float64(), bal.Net.Float64())
	}

	if sb.err != nil {
		return fmt.Errorf("build workbook: %w", sb.err)
	}

	// NewFile starts with a default sheet that none of ours replaced.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetAccounts); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetBuilder appends rows to the current sheet and keeps the first error.
type sheetBuilder struct {
	f    *excelize.File
	name string
	next int
	err  error
}

func newSheetBuilder(f *excelize.File) *sheetBuilder {
	return &sheetBuilder{f: f}
}

func (b *sheetBuilder) sheet(name string, headers ...any) {
	if b.err != nil {
		return
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = err
		return
	}
	b.name, b.next = name, 1
	b.row(headers...)
	if b.err == nil {
		b.err = b.f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
}

func (b *sheetBuilder) row(values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, b.next)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(b.name, cell, &values); err != nil {
		b.err = err
		return
	}
	b.next++
}
