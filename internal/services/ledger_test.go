package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oba/internal/core"
	"oba/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) actions() []core.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Action, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

func newTestLedger(t *testing.T) (*Ledger, *recordingPublisher) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "oba.db"), 1)
	require.NoError(t, err)
	pub := &recordingPublisher{}
	ledger := NewLedger(store, pub, nil)
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger, pub
}

func at(y, m, d int) core.DateTime {
	return core.NewDateTime(y, m, d, 0, 0, 0)
}

func TestResourceCRUDPublishesEvents(t *testing.T) {
	ctx := context.Background()
	ledger, pub := newTestLedger(t)

	a, err := ledger.Accounts.Create(ctx, core.AccountForm{Name: "banking"})
	require.NoError(t, err)

	got, err := ledger.Accounts.Read(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = ledger.Accounts.Update(ctx, a.ID, core.AccountForm{Name: "checking"})
	require.NoError(t, err)
	require.NoError(t, ledger.Accounts.Delete(ctx, a.ID))
	require.NoError(t, ledger.Accounts.DeleteAll(ctx))

	assert.Equal(t, []core.Action{core.ActionCreated, core.ActionUpdated, core.ActionDeleted, core.ActionDeletedAll}, pub.actions())
	assert.Equal(t, core.EntityAccount, pub.events[0].Entity)
	assert.Equal(t, a.ID, pub.events[0].ID)
	assert.Zero(t, pub.events[3].ID)
}

func TestResourceRejectsInvalidForms(t *testing.T) {
	ctx := context.Background()
	ledger, pub := newTestLedger(t)

	_, err := ledger.Transactions.Create(ctx, core.TransactionForm{Name: "Rent", Amount: core.NewAmount(-800), AccountID: 1})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ledger.Fills.Create(ctx, core.FillForm{Amount: core.NewAmount(10), BucketID: 1})
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.Empty(t, pub.actions(), "nothing is published for rejected writes")
}

func TestResourceFailedWritesPublishNothing(t *testing.T) {
	ctx := context.Background()
	ledger, pub := newTestLedger(t)

	_, err := ledger.Transactions.Create(ctx, core.TransactionForm{
		Name: "Rent", Amount: core.NewAmount(-800), Date: at(2022, 7, 1), AccountID: 99,
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	err = ledger.Buckets.Delete(ctx, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = ledger.Buckets.Update(ctx, 5, core.BucketForm{Name: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, pub.actions())
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	ledger, pub := newTestLedger(t)
	pub.err = errors.New("broker down")

	b, err := ledger.Buckets.Create(ctx, core.BucketForm{Name: "Bills"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
	assert.Len(t, pub.actions(), 1)
}

func TestScopedListings(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	account, err := ledger.Accounts.Create(ctx, core.AccountForm{Name: "banking"})
	require.NoError(t, err)
	bucket, err := ledger.Buckets.Create(ctx, core.BucketForm{Name: "Bills"})
	require.NoError(t, err)

	for _, d := range []core.DateTime{at(2022, 6, 1), at(2022, 7, 2), at(2022, 7, 20), at(2022, 8, 5)} {
		_, err := ledger.Transactions.Create(ctx, core.TransactionForm{
			Name: "t", Amount: core.NewAmount(-1), Date: d, AccountID: account.ID, BucketID: &bucket.ID,
		})
		require.NoError(t, err)
		_, err = ledger.Fills.Create(ctx, core.FillForm{Amount: core.NewAmount(1), Date: d, BucketID: bucket.ID})
		require.NoError(t, err)
	}

	txs, err := ledger.Transactions.ListForAccountInMonth(ctx, account.ID, 2022, 7)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2022-07-02T00:00:00", txs[0].Date.String())
	assert.Equal(t, "2022-07-20T00:00:00", txs[1].Date.String())

	txs, err = ledger.Transactions.ListForBucketInMonth(ctx, bucket.ID, 2022, 7)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	fills, err := ledger.Fills.ListForBucketInMonth(ctx, bucket.ID, 2022, 7)
	require.NoError(t, err)
	assert.Len(t, fills, 2)

	all, err := ledger.Transactions.ListForAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	allTx, err := ledger.Transactions.ListForBucket(ctx, bucket.ID)
	require.NoError(t, err)
	assert.Len(t, allTx, 4)

	allFills, err := ledger.Fills.ListForBucket(ctx, bucket.ID)
	require.NoError(t, err)
	assert.Len(t, allFills, 4)

	none, err := ledger.Fills.ListForBucket(ctx, bucket.ID+1)
	require.NoError(t, err)
	assert.Empty(t, none)

	for _, month := range []int{0, 13} {
		_, err = ledger.Transactions.ListForAccountInMonth(ctx, account.ID, 2022, month)
		assert.ErrorIs(t, err, core.ErrInvalidMonth)
		_, err = ledger.Fills.ListForBucketInMonth(ctx, bucket.ID, 2022, month)
		assert.ErrorIs(t, err, core.ErrInvalidMonth)
	}
}

// TestLedgerWalkthrough follows a month of envelope budgeting: salary comes
// in, buckets get filled and spent from.
func TestLedgerWalkthrough(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	banking, err := ledger.Accounts.Create(ctx, core.AccountForm{Name: "banking"})
	require.NoError(t, err)
	bills, err := ledger.Buckets.Create(ctx, core.BucketForm{Name: "Bills"})
	require.NoError(t, err)
	food, err := ledger.Buckets.Create(ctx, core.BucketForm{Name: "Food"})
	require.NoError(t, err)

	_, err = ledger.Transactions.Create(ctx, core.TransactionForm{
		Name: "Salary", Amount: core.NewAmount(1300), Date: at(2022, 7, 1), AccountID: banking.ID,
	})
	require.NoError(t, err)
	_, err = ledger.Fills.Create(ctx, core.FillForm{Amount: core.NewAmount(950), Date: at(2022, 7, 1), BucketID: bills.ID})
	require.NoError(t, err)
	_, err = ledger.Fills.Create(ctx, core.FillForm{Amount: core.NewAmount(350), Date: at(2022, 7, 1), BucketID: food.ID})
	require.NoError(t, err)
	_, err = ledger.Transactions.Create(ctx, core.TransactionForm{
		Name: "Rent", Amount: core.NewAmount(-800), Date: at(2022, 7, 3), AccountID: banking.ID, BucketID: &bills.ID,
	})
	require.NoError(t, err)
	_, err = ledger.Transactions.Create(ctx, core.TransactionForm{
		Name: "Power", Amount: core.NewAmount(-100), Date: at(2022, 7, 10), AccountID: banking.ID, BucketID: &bills.ID,
	})
	require.NoError(t, err)
	_, err = ledger.Transactions.Create(ctx, core.TransactionForm{
		Name: "Groceries", Amount: core.NewAmount(-120.45), Date: at(2022, 7, 12), AccountID: banking.ID, BucketID: &food.ID,
	})
	require.NoError(t, err)

	july := &core.Period{Year: 2022, Month: 7}
	billsBalance, err := ledger.Balances.Bucket(ctx, bills.ID, july)
	require.NoError(t, err)
	assert.True(t, billsBalance.Remaining.Equal(core.NewAmount(50)), "remaining=%s", billsBalance.Remaining)
	assert.True(t, billsBalance.Filled.Equal(core.NewAmount(950)))
	assert.True(t, billsBalance.Spent.Equal(core.NewAmount(-900)))
	assert.Equal(t, 7, billsBalance.Month)

	foodBalance, err := ledger.Balances.Bucket(ctx, food.ID, nil)
	require.NoError(t, err)
	assert.True(t, foodBalance.Remaining.Equal(core.NewAmount(229.55)), "remaining=%s", foodBalance.Remaining)
	assert.Zero(t, foodBalance.Year)

	accountBalance, err := ledger.Balances.Account(ctx, banking.ID, july)
	require.NoError(t, err)
	assert.True(t, accountBalance.Income.Equal(core.NewAmount(1300)))
	assert.True(t, accountBalance.Expenses.Equal(core.NewAmount(-1020.45)), "expenses=%s", accountBalance.Expenses)
	assert.True(t, accountBalance.Net.Equal(core.NewAmount(279.55)), "net=%s", accountBalance.Net)

	august, err := ledger.Balances.Bucket(ctx, bills.ID, &core.Period{Year: 2022, Month: 8})
	require.NoError(t, err)
	assert.True(t, august.Remaining.IsZero())

	err = ledger.Buckets.Delete(ctx, bills.ID)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestBalanceErrors(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	_, err := ledger.Balances.Bucket(ctx, 1, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = ledger.Balances.Account(ctx, 1, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = ledger.Balances.Bucket(ctx, 1, &core.Period{Year: 2022, Month: 13})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	ledger, pub := newTestLedger(t)

	a, err := ledger.Accounts.Create(ctx, core.AccountForm{Name: "banking"})
	require.NoError(t, err)
	_, err = ledger.Transactions.Create(ctx, core.TransactionForm{Name: "Salary", Amount: core.NewAmount(1), Date: at(2022, 7, 1), AccountID: a.ID})
	require.NoError(t, err)

	removed, err := ledger.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	accounts, err := ledger.Accounts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	actions := pub.actions()
	assert.Equal(t, core.ActionDeletedAll, actions[len(actions)-1])
	assert.NoError(t, ledger.Ping(ctx))
}
