package services

import (
	"context"
	"fmt"

	"oba/internal/core"
)

// TransactionService adds account and bucket scoped listings to the plain
// transaction resource.
type TransactionService struct {
	*Resource[core.Transaction, core.TransactionForm]
	queries Queries
}

func (s *TransactionService) ListForAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	txs, err := s.queries.TransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	return txs, nil
}

// ListForAccountInMonth returns the account's transactions dated within the
// calendar month. An out of range month is core.ErrInvalidMonth.
func (s *TransactionService) ListForAccountInMonth(ctx context.Context, accountID int64, year, month int) ([]core.Transaction, error) {
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	txs, err := s.queries.TransactionsForAccountBetween(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list account transactions for %04d-%02d: %w", year, month, err)
	}
	return txs, nil
}

func (s *TransactionService) ListForBucket(ctx context.Context, bucketID int64) ([]core.Transaction, error) {
	txs, err := s.queries.TransactionsForBucket(ctx, bucketID)
	if err != nil {
		return nil, fmt.Errorf("list bucket transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) ListForBucketInMonth(ctx context.Context, bucketID int64, year, month int) ([]core.Transaction, error) {
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	txs, err := s.queries.TransactionsForBucketBetween(ctx, bucketID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bucket transactions for %04d-%02d: %w", year, month, err)
	}
	return txs, nil
}

// FillService adds bucket scoped listings to the plain fill resource.
type FillService struct {
	*Resource[core.Fill, core.FillForm]
	queries Queries
}

func (s *FillService) ListForBucket(ctx context.Context, bucketID int64) ([]core.Fill, error) {
	fills, err := s.queries.FillsForBucket(ctx, bucketID)
	if err != nil {
		return nil, fmt.Errorf("list bucket fills: %w", err)
	}
	return fills, nil
}

func (s *FillService) ListForBucketInMonth(ctx context.Context, bucketID int64, year, month int) ([]core.Fill, error) {
	from, to, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	fills, err := s.queries.FillsForBucketBetween(ctx, bucketID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bucket fills for %04d-%02d: %w", year, month, err)
	}
	return fills, nil
}

// BalanceService sums fills and transactions on demand. Nothing is cached
// or stored.
type BalanceService struct {
	accounts Repository[core.Account, core.AccountForm]
	buckets  Repository[core.Bucket, core.BucketForm]
	queries  Queries
}

// Bucket returns filled, spent and remaining for the bucket, optionally
// restricted to one month. The bucket must exist.
func (s *BalanceService) Bucket(ctx context.Context, bucketID int64, period *core.Period) (core.BucketBalance, error) {
	if err := checkPeriod(period); err != nil {
		return core.BucketBalance{}, err
	}
	if _, err := s.buckets.Get(ctx, bucketID); err != nil {
		return core.BucketBalance{}, fmt.Errorf("bucket balance: %w", err)
	}

	filled, err := s.queries.SumFills(ctx, bucketID, period)
	if err != nil {
		return core.BucketBalance{}, fmt.Errorf("bucket balance: %w", err)
	}
	spent, err := s.queries.SumBucketTransactions(ctx, bucketID, period)
	if err != nil {
		return core.BucketBalance{}, fmt.Errorf("bucket balance: %w", err)
	}

	b := core.BucketBalance{
		BucketID:  bucketID,
		Filled:    filled,
		Spent:     spent,
		Remaining: filled.Add(spent),
	}
	if period != nil {
		b.Year, b.Month = period.Year, period.Month
	}
	return b, nil
}

// Account returns income, expenses and net for the account, optionally
// restricted to one month. The account must exist.
func (s *BalanceService) Account(ctx context.Context, accountID int64, period *core.Period) (core.AccountBalance, error) {
	if err := checkPeriod(period); err != nil {
		return core.AccountBalance{}, err
	}
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return core.AccountBalance{}, fmt.Errorf("account balance: %w", err)
	}

	income, expenses, err := s.queries.SumAccountTransactions(ctx, accountID, period)
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("account balance: %w", err)
	}

	b := core.AccountBalance{
		AccountID: accountID,
		Income:    income,
		Expenses:  expenses,
		Net:       income.Add(expenses),
	}
	if period != nil {
		b.Year, b.Month = period.Year, period.Month
	}
	return b, nil
}

func checkPeriod(period *core.Period) error {
	if period == nil {
		return nil
	}
	_, _, err := period.Range()
	return err
}
