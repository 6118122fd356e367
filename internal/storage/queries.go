package storage

import (
	"context"
	"fmt"

	"oba/internal/core"
)

// TransactionsForAccount returns every transaction posted on the account.
func (s *Store) TransactionsForAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.Transactions.ListWhere(ctx, "account_id = ?", accountID)
}

// TransactionsForAccountBetween returns the account's transactions dated in
// [from, to).
func (s *Store) TransactionsForAccountBetween(ctx context.Context, accountID int64, from, to core.DateTime) ([]core.Transaction, error) {
	return s.Transactions.ListWhere(ctx, "account_id = ? AND date >= ? AND date < ?", accountID, from, to)
}

// TransactionsForBucket returns every transaction attributed to the bucket.
func (s *Store) TransactionsForBucket(ctx context.Context, bucketID int64) ([]core.Transaction, error) {
	return s.Transactions.ListWhere(ctx, "bucket_id = ?", bucketID)
}

func (s *Store) TransactionsForBucketBetween(ctx context.Context, bucketID int64, from, to core.DateTime) ([]core.Transaction, error) {
	return s.Transactions.ListWhere(ctx, "bucket_id = ? AND date >= ? AND date < ?", bucketID, from, to)
}

func (s *Store) FillsForBucket(ctx context.Context, bucketID int64) ([]core.Fill, error) {
	return s.Fills.ListWhere(ctx, "bucket_id = ?", bucketID)
}

func (s *Store) FillsForBucketBetween(ctx context.Context, bucketID int64, from, to core.DateTime) ([]core.Fill, error) {
	return s.Fills.ListWhere(ctx, "bucket_id = ? AND date >= ? AND date < ?", bucketID, from, to)
}

// SumFills adds up the bucket's fills, optionally restricted to a month.
func (s *Store) SumFills(ctx context.Context, bucketID int64, period *core.Period) (core.Amount, error) {
	return s.sumAmounts(ctx, "fills", "bucket_id = ?", []any{bucketID}, period)
}

// SumBucketTransactions adds up the signed amounts attributed to the bucket.
func (s *Store) SumBucketTransactions(ctx context.Context, bucketID int64, period *core.Period) (core.Amount, error) {
	return s.sumAmounts(ctx, "transactions", "bucket_id = ?", []any{bucketID}, period)
}

// SumAccountTransactions returns the account's income (positive amounts) and
// expenses (negative amounts) separately.
func (s *Store) SumAccountTransactions(ctx context.Context, accountID int64, period *core.Period) (income, expenses core.Amount, err error) {
	income, err = s.sumAmounts(ctx, "transactions", "account_id = ? AND amount > 0", []any{accountID}, period)
	if err != nil {
		return core.Amount{}, core.Amount{}, err
	}
	expenses, err = s.sumAmounts(ctx, "transactions", "account_id = ? AND amount < 0", []any{accountID}, period)
	if err != nil {
		return core.Amount{}, core.Amount{}, err
	}
	return income, expenses, nil
}

// sumAmounts reads the matching amounts and adds them as decimals, which
// keeps sums of float-stored values exact at the precision they were written.
func (s *Store) sumAmounts(ctx context.Context, table, where string, args []any, period *core.Period) (core.Amount, error) {
	if period != nil {
		from, to, err := period.Range()
		if err != nil {
			return core.Amount{}, err
		}
		where += " AND date >= ? AND date < ?"
		args = append(args, from, to)
	}

	op := "sum " + table
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT amount FROM %s WHERE %s", table, where), args...)
	if err != nil {
		return core.Amount{}, classify(op, err)
	}
	defer rows.Close()

	var total core.Amount
	for rows.Next() {
		var a core.Amount
		if err := rows.Scan(&a); err != nil {
			return core.Amount{}, classify(op, err)
		}
		total = total.Add(a)
	}
	if err := rows.Err(); err != nil {
		return core.Amount{}, classify(op, err)
	}
	return total, nil
}
