package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"oba/internal/core"
	"oba/internal/log"
	"oba/internal/storage"
)

// Ledger wires the four resources, the scoped listings and the balances to
// one store and one event publisher.
type Ledger struct {
	Accounts     *Resource[core.Account, core.AccountForm]
	Buckets      *Resource[core.Bucket, core.BucketForm]
	Transactions *TransactionService
	Fills        *FillService
	Balances     *BalanceService

	store  *storage.Store
	events EventPublisher
	logger *log.Logger
}

func NewLedger(store *storage.Store, events EventPublisher, logger *log.Logger) *Ledger {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = log.Discard()
	}

	return &Ledger{
		Accounts: NewResource[core.Account, core.AccountForm](core.EntityAccount, store.Accounts, events, logger),
		Buckets:  NewResource[core.Bucket, core.BucketForm](core.EntityBucket, store.Buckets, events, logger),
		Transactions: &TransactionService{
			Resource: NewResource[core.Transaction, core.TransactionForm](core.EntityTransaction, store.Transactions, events, logger),
			queries:  store,
		},
		Fills: &FillService{
			Resource: NewResource[core.Fill, core.FillForm](core.EntityFill, store.Fills, events, logger),
			queries:  store,
		},
		Balances: &BalanceService{
			accounts: store.Accounts,
			buckets:  store.Buckets,
			queries:  store,
		},
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Ping reports whether the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// Reset empties every table in dependency order and announces each table as
// deleted_all. It returns the number of rows removed.
func (l *Ledger) Reset(ctx context.Context) (int64, error) {
	removed, err := l.store.Reset(ctx)
	if err != nil {
		return removed, err
	}
	for _, entity := range []string{core.EntityFill, core.EntityTransaction, core.EntityBucket, core.EntityAccount} {
		if err := l.events.PublishLedgerEvent(ctx, core.NewLedgerEvent(entity, core.ActionDeletedAll, 0)); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish reset event", log.FieldEntity, entity, log.FieldError, err)
		}
	}
	return removed, nil
}

// Close closes the store and, when it holds a connection, the publisher.
func (l *Ledger) Close() error {
	var errs []error

	if l.store != nil {
		if err := l.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := l.events.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger: %w", errors.Join(errs...))
	}
	return nil
}
