// Package worker mirrors committed ledger writes into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"oba/internal/core"
	"oba/internal/log"
	"oba/internal/sheets"
	"oba/internal/storage"
)

// MirrorWorker turns ledger events into appended spreadsheet rows. Events
// carry only ids, so every row is reloaded from the store and reflects the
// state at processing time.
type MirrorWorker struct {
	// mu serialises event handling with backfills and guards the fields
	// below.
	mu sync.Mutex
	// Rows appended by a backfill whose created event may still be queued,
	// keyed by entity and id, with the time they were appended.
	backfilled map[rowKey]time.Time

	store  *storage.Store
	mirror sheets.LedgerMirror
	logger *log.Logger
}

func NewMirrorWorker(store *storage.Store, mirror sheets.LedgerMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		backfilled: make(map[rowKey]time.Time),
		store:      store,
		mirror:     mirror,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent processes one event. Created and updated transactions
// and fills are appended; everything else is acknowledged and ignored.
// Returning an error asks the consumer to redeliver.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, event core.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if event.Action != core.ActionCreated && event.Action != core.ActionUpdated {
		w.logger.DebugContext(ctx, "Ignoring ledger event",
			log.FieldEntity, event.Entity, log.FieldAction, event.Action, log.FieldEntityID, event.ID)
		return nil
	}

	if event.Entity != core.EntityTransaction && event.Entity != core.EntityFill {
		return nil
	}

	key := rowKey{entity: event.Entity, id: event.ID}
	if _, ok := w.backfilled[key]; ok && event.Action == core.ActionCreated {
		delete(w.backfilled, key)
		w.logger.DebugContext(ctx, "Row already appended by backfill, skipping",
			log.FieldEntity, event.Entity, log.FieldEntityID, event.ID)
		return nil
	}

	var (
		ref string
		err error
	)
	if event.Entity == core.EntityTransaction {
		ref, err = w.mirrorTransaction(ctx, event.ID)
	} else {
		ref, err = w.mirrorFill(ctx, event.ID)
	}

	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; the delete event follows.
		w.logger.InfoContext(ctx, "Row gone before mirroring, skipping",
			log.FieldEntity, event.Entity, log.FieldEntityID, event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s %d: %w", event.Entity, event.ID, err)
	}

	w.logger.InfoContext(ctx, "Mirrored ledger row",
		log.FieldEntity, event.Entity,
		log.FieldEntityID, event.ID,
		log.FieldAction, event.Action,
		log.FieldSheet, ref)
	return nil
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, id int64) (string, error) {
	t, err := w.store.Transactions.Get(ctx, id)
	if err != nil {
		return "", err
	}
	row, err := w.transactionRow(ctx, t)
	if err != nil {
		return "", err
	}
	return w.mirror.AppendTransaction(ctx, row)
}

func (w *MirrorWorker) mirrorFill(ctx context.Context, id int64) (string, error) {
	f, err := w.store.Fills.Get(ctx, id)
	if err != nil {
		return "", err
	}
	row, err := w.fillRow(ctx, f)
	if err != nil {
		return "", err
	}
	return w.mirror.AppendFill(ctx, row)
}

func (w *MirrorWorker) transactionRow(ctx context.Context, t core.Transaction) (sheets.TransactionRow, error) {
	account, err := w.store.Accounts.Get(ctx, t.AccountID)
	if err != nil {
		return sheets.TransactionRow{}, fmt.Errorf("resolve account: %w", err)
	}
	row := sheets.TransactionRow{
		ID:      t.ID,
		Date:    t.Date,
		Name:    t.Name,
		Amount:  t.Amount,
		Account: account.Name,
	}
	if t.BucketID != nil {
		bucket, err := w.store.Buckets.Get(ctx, *t.BucketID)
		if err != nil {
			return sheets.TransactionRow{}, fmt.Errorf("resolve bucket: %w", err)
		}
		row.Bucket = bucket.Name
	}
	return row, nil
}

func (w *MirrorWorker) fillRow(ctx context.Context, f core.Fill) (sheets.FillRow, error) {
	bucket, err := w.store.Buckets.Get(ctx, f.BucketID)
	if err != nil {
		return sheets.FillRow{}, fmt.Errorf("resolve bucket: %w", err)
	}
	return sheets.FillRow{
		ID:     f.ID,
		Date:   f.Date,
		Amount: f.Amount,
		Bucket: bucket.Name,
	}, nil
}

// Backfill appends every transaction and fill whose id is above the highest
// id already in the sheet. It catches up on events lost while the broker was
// unreachable. Mirrors that cannot be read back are left alone.
func (w *MirrorWorker) Backfill(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.forgetBackfilled(time.Now().Add(-backfilledTTL))

	reader, ok := w.mirror.(sheets.MirrorReader)
	if !ok {
		return 0, nil
	}

	mirroredTx, err := reader.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirrored transactions: %w", err)
	}
	var maxTx int64
	for _, r := range mirroredTx {
		maxTx = max(maxTx, r.ID)
	}

	mirroredFills, err := reader.ListFills(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirrored fills: %w", err)
	}
	var maxFill int64
	for _, r := range mirroredFills {
		maxFill = max(maxFill, r.ID)
	}

	count := 0
	if behind, err := pending(ctx, w.store.Transactions, maxTx); err != nil {
		return 0, fmt.Errorf("check transactions: %w", err)
	} else if behind {
		txs, err := w.store.Transactions.ListWhere(ctx, "id > ?", maxTx)
		if err != nil {
			return 0, fmt.Errorf("list unmirrored transactions: %w", err)
		}
		for _, t := range txs {
			row, err := w.transactionRow(ctx, t)
			if err != nil {
				return count, err
			}
			if _, err := w.mirror.AppendTransaction(ctx, row); err != nil {
				return count, fmt.Errorf("backfill transaction %d: %w", t.ID, err)
			}
			w.backfilled[rowKey{entity: core.EntityTransaction, id: t.ID}] = time.Now()
			count++
		}
	}

	if behind, err := pending(ctx, w.store.Fills, maxFill); err != nil {
		return count, fmt.Errorf("check fills: %w", err)
	} else if behind {
		fills, err := w.store.Fills.ListWhere(ctx, "id > ?", maxFill)
		if err != nil {
			return count, fmt.Errorf("list unmirrored fills: %w", err)
		}
		for _, f := range fills {
			row, err := w.fillRow(ctx, f)
			if err != nil {
				return count, err
			}
			if _, err := w.mirror.AppendFill(ctx, row); err != nil {
				return count, fmt.Errorf("backfill fill %d: %w", f.ID, err)
			}
			w.backfilled[rowKey{entity: core.EntityFill, id: f.ID}] = time.Now()
			count++
		}
	}

	if count > 0 {
		w.logger.InfoContext(ctx, "Backfilled mirror", log.FieldCount, count)
	}
	return count, nil
}

// backfilledTTL bounds how long a backfilled row waits for its created
// event. Events for rows whose broker message was lost never arrive.
const backfilledTTL = time.Hour

type rowKey struct {
	entity string
	id     int64
}

func (w *MirrorWorker) forgetBackfilled(before time.Time) {
	for k, at := range w.backfilled {
		if at.Before(before) {
			delete(w.backfilled, k)
		}
	}
}

// pending reports whether the table holds a row above mark. An empty table
// has nothing pending.
func pending[E interface{ Key() int64 }, F any](ctx context.Context, t *storage.Table[E, F], mark int64) (bool, error) {
	last, err := t.Last(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return last.Key() > mark, nil
}

// RunBackfill calls Backfill once immediately and then on every tick until
// ctx is done. Failures are logged and retried on the next tick.
func (w *MirrorWorker) RunBackfill(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Backfill(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic backfill failed", log.FieldError, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
