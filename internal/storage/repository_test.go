package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oba/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "oba.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func date(y, m, d int) core.DateTime {
	return core.NewDateTime(y, m, d, 0, 0, 0)
}

func mustAccount(t *testing.T, s *Store, name string) core.Account {
	t.Helper()
	a, err := s.Accounts.Insert(context.Background(), core.AccountForm{Name: name})
	require.NoError(t, err)
	return a
}

func mustBucket(t *testing.T, s *Store, name string) core.Bucket {
	t.Helper()
	b, err := s.Buckets.Insert(context.Background(), core.BucketForm{Name: name})
	require.NoError(t, err)
	return b
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Accounts.Insert(ctx, core.AccountForm{Name: "banking"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	read, err := s.Accounts.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, read)

	last, err := s.Accounts.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, last)
}

func TestUniqueNames(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mustAccount(t, s, "banking")
	_, err := s.Accounts.Insert(ctx, core.AccountForm{Name: "banking"})
	require.ErrorIs(t, err, core.ErrConflict)

	var cerr *ConstraintError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, cerr.IsUnique())
	assert.Contains(t, err.Error(), "UNIQUE")

	mustBucket(t, s, "Bills")
	_, err = s.Buckets.Insert(ctx, core.BucketForm{Name: "Bills"})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Accounts.Get(ctx, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Fills.Last(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.Buckets.Delete(ctx, 0), core.ErrNotFound)
}

func TestTransactionForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")
	bucket := mustBucket(t, s, "Bills")

	form := core.TransactionForm{
		Name:      "Rent",
		Amount:    core.NewAmount(-800),
		Date:      date(2022, 7, 1),
		AccountID: account.ID + 1,
	}
	_, err := s.Transactions.Insert(ctx, form)
	require.ErrorIs(t, err, core.ErrConflict)
	var cerr *ConstraintError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, cerr.IsForeignKey())

	missingBucket := bucket.ID + 1
	form.AccountID = account.ID
	form.BucketID = &missingBucket
	_, err = s.Transactions.Insert(ctx, form)
	assert.ErrorIs(t, err, core.ErrConflict)

	form.BucketID = &bucket.ID
	tx, err := s.Transactions.Insert(ctx, form)
	require.NoError(t, err)
	require.NotNil(t, tx.BucketID)
	assert.Equal(t, bucket.ID, *tx.BucketID)
	assert.True(t, tx.Amount.Equal(core.NewAmount(-800)))
	assert.Equal(t, "2022-07-01T00:00:00", tx.Date.String())

	form.BucketID = nil
	tx, err = s.Transactions.Insert(ctx, form)
	require.NoError(t, err)
	assert.Nil(t, tx.BucketID)
}

func TestFillForeignKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	bucket := mustBucket(t, s, "Food")

	_, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(133.7), Date: date(2022, 7, 1), BucketID: bucket.ID + 1})
	assert.ErrorIs(t, err, core.ErrConflict)

	fill, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(133.7), Date: date(2022, 7, 1), BucketID: bucket.ID})
	require.NoError(t, err)
	assert.True(t, fill.Amount.Equal(core.NewAmount(133.7)))

	read, err := s.Fills.Get(ctx, fill.ID)
	require.NoError(t, err)
	assert.True(t, read.Amount.Equal(fill.Amount))
	assert.True(t, read.Date.Equal(fill.Date.Time))
}

func TestDeleteProtection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")
	bucket := mustBucket(t, s, "Bills")
	other := mustBucket(t, s, "Food")

	tx, err := s.Transactions.Insert(ctx, core.TransactionForm{
		Name: "Rent", Amount: core.NewAmount(-800), Date: date(2022, 7, 1),
		AccountID: account.ID, BucketID: &bucket.ID,
	})
	require.NoError(t, err)
	fill, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(150), Date: date(2022, 7, 1), BucketID: other.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Accounts.Delete(ctx, account.ID), core.ErrConflict)
	assert.ErrorIs(t, s.Buckets.Delete(ctx, bucket.ID), core.ErrConflict)
	assert.ErrorIs(t, s.Buckets.Delete(ctx, other.ID), core.ErrConflict)
	assert.ErrorIs(t, s.Accounts.DeleteAll(ctx), core.ErrConflict)

	// Nothing was cascaded.
	n, err := s.Accounts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Transactions.Delete(ctx, tx.ID))
	require.NoError(t, s.Fills.Delete(ctx, fill.ID))
	assert.NoError(t, s.Accounts.Delete(ctx, account.ID))
	assert.NoError(t, s.Buckets.Delete(ctx, bucket.ID))
	assert.NoError(t, s.Buckets.Delete(ctx, other.ID))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")

	updated, err := s.Accounts.Update(ctx, account.ID, core.AccountForm{Name: "savings"})
	require.NoError(t, err)
	assert.Equal(t, core.Account{ID: account.ID, Name: "savings"}, updated)

	_, err = s.Accounts.Update(ctx, account.ID+10, core.AccountForm{Name: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	mustAccount(t, s, "cash")
	_, err = s.Accounts.Update(ctx, account.ID, core.AccountForm{Name: "cash"})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestDeleteAllIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Fills.DeleteAll(ctx))
	require.NoError(t, s.Fills.DeleteAll(ctx))
	fills, err := s.Fills.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, fills)
	assert.Empty(t, fills)
}

func TestListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	names := []string{"c", "a", "b"}
	for _, n := range names {
		mustAccount(t, s, n)
	}

	accounts, err := s.Accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	for i, a := range accounts {
		assert.Equal(t, names[i], a.Name)
		assert.Equal(t, int64(i+1), a.ID)
	}
}

func TestMonthFilterBoundaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")
	bucket := mustBucket(t, s, "Bills")

	dates := []core.DateTime{date(2022, 6, 1), date(2022, 7, 2), date(2022, 7, 20), date(2022, 8, 5)}
	for i, d := range dates {
		_, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(float64(i + 1)), Date: d, BucketID: bucket.ID})
		require.NoError(t, err)
		_, err = s.Transactions.Insert(ctx, core.TransactionForm{
			Name: "t", Amount: core.NewAmount(float64(-(i + 1))), Date: d,
			AccountID: account.ID, BucketID: &bucket.ID,
		})
		require.NoError(t, err)
	}

	from, to, err := core.MonthRange(2022, 7)
	require.NoError(t, err)

	fills, err := s.FillsForBucketBetween(ctx, bucket.ID, from, to)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "2022-07-02T00:00:00", fills[0].Date.String())
	assert.Equal(t, "2022-07-20T00:00:00", fills[1].Date.String())

	txs, err := s.TransactionsForAccountBetween(ctx, account.ID, from, to)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Less(t, txs[0].ID, txs[1].ID)

	txs, err = s.TransactionsForBucketBetween(ctx, bucket.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	all, err := s.TransactionsForAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	allFills, err := s.FillsForBucket(ctx, bucket.ID)
	require.NoError(t, err)
	assert.Len(t, allFills, 4)
}

func TestDecemberRollover(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	bucket := mustBucket(t, s, "Holidays")

	for _, d := range []core.DateTime{date(2022, 12, 31), date(2023, 1, 1)} {
		_, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(10), Date: d, BucketID: bucket.ID})
		require.NoError(t, err)
	}

	from, to, err := core.MonthRange(2022, 12)
	require.NoError(t, err)
	fills, err := s.FillsForBucketBetween(ctx, bucket.ID, from, to)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "2022-12-31T00:00:00", fills[0].Date.String())
}

func TestSums(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")
	bills := mustBucket(t, s, "Bills")

	_, err := s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(950), Date: date(2022, 7, 1), BucketID: bills.ID})
	require.NoError(t, err)
	_, err = s.Fills.Insert(ctx, core.FillForm{Amount: core.NewAmount(10), Date: date(2022, 8, 1), BucketID: bills.ID})
	require.NoError(t, err)
	for _, amt := range []float64{1300, -800, -100} {
		form := core.TransactionForm{Name: "t", Amount: core.NewAmount(amt), Date: date(2022, 7, 1), AccountID: account.ID}
		if amt < 0 {
			form.BucketID = &bills.ID
		}
		_, err := s.Transactions.Insert(ctx, form)
		require.NoError(t, err)
	}

	july := &core.Period{Year: 2022, Month: 7}
	filled, err := s.SumFills(ctx, bills.ID, july)
	require.NoError(t, err)
	assert.True(t, filled.Equal(core.NewAmount(950)), "filled=%s", filled)

	allFilled, err := s.SumFills(ctx, bills.ID, nil)
	require.NoError(t, err)
	assert.True(t, allFilled.Equal(core.NewAmount(960)), "filled=%s", allFilled)

	spent, err := s.SumBucketTransactions(ctx, bills.ID, july)
	require.NoError(t, err)
	assert.True(t, filled.Add(spent).Equal(core.NewAmount(50)))

	income, expenses, err := s.SumAccountTransactions(ctx, account.ID, july)
	require.NoError(t, err)
	assert.True(t, income.Equal(core.NewAmount(1300)))
	assert.True(t, expenses.Equal(core.NewAmount(-900)))

	_, err = s.SumFills(ctx, bills.ID, &core.Period{Year: 2022, Month: 13})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	account := mustAccount(t, s, "banking")
	bucket := mustBucket(t, s, "Bills")
	_, err := s.Transactions.Insert(ctx, core.TransactionForm{Name: "t", Amount: core.NewAmount(1), Date: date(2022, 7, 1), AccountID: account.ID, BucketID: &bucket.ID})
	require.NoError(t, err)

	removed, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	for _, count := range []func(context.Context) (int64, error){s.Accounts.Count, s.Buckets.Count, s.Transactions.Count, s.Fills.Count} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestMigrationVersion(t *testing.T) {
	s := newTestStore(t)

	version, dirty, err := MigrationVersion(s.Path())
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)

	require.NoError(t, s.Close())
	require.NoError(t, RollbackMigrations(s.Path(), 1))
	version, _, err = MigrationVersion(s.Path())
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
}
