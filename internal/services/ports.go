// Package services holds the ledger's use cases: generic CRUD over the four
// tables, relationship and month scoped listings, balances and change events.
package services

import (
	"context"

	"oba/internal/core"
)

// Repository is the persistence surface a Resource needs. storage.Table
// satisfies it for every entity.
type Repository[E any, F any] interface {
	Insert(ctx context.Context, form F) (E, error)
	Get(ctx context.Context, id int64) (E, error)
	List(ctx context.Context) ([]E, error)
	Update(ctx context.Context, id int64, form F) (E, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// Entity is a persisted row with a server-assigned id.
type Entity interface {
	Key() int64
}

// Form is a writable payload that can check its own shape.
type Form interface {
	Validate() error
}

// EventPublisher announces committed writes. amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event core.LedgerEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLedgerEvent(context.Context, core.LedgerEvent) error { return nil }

// Queries are the scoped reads and sums the store offers on top of plain
// CRUD.
type Queries interface {
	TransactionsForAccount(ctx context.Context, accountID int64) ([]core.Transaction, error)
	TransactionsForAccountBetween(ctx context.Context, accountID int64, from, to core.DateTime) ([]core.Transaction, error)
	TransactionsForBucket(ctx context.Context, bucketID int64) ([]core.Transaction, error)
	TransactionsForBucketBetween(ctx context.Context, bucketID int64, from, to core.DateTime) ([]core.Transaction, error)
	FillsForBucket(ctx context.Context, bucketID int64) ([]core.Fill, error)
	FillsForBucketBetween(ctx context.Context, bucketID int64, from, to core.DateTime) ([]core.Fill, error)
	SumFills(ctx context.Context, bucketID int64, period *core.Period) (core.Amount, error)
	SumBucketTransactions(ctx context.Context, bucketID int64, period *core.Period) (core.Amount, error)
	SumAccountTransactions(ctx context.Context, accountID int64, period *core.Period) (income, expenses core.Amount, err error)
}
