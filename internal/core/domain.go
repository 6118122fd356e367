package core

import (
	"errors"
	"fmt"
)

type (
	// Account is a named money source or sink that transactions post against.
	Account struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	AccountForm struct {
		Name string `json:"name"`
	}

	// Bucket is a named budget envelope. It accumulates funds through fills
	// and can be attributed transactions.
	Bucket struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	BucketForm struct {
		Name string `json:"name"`
	}

	// Transaction is a signed monetary movement on an account: positive is
	// income, negative is an expense. BucketID is nil when unattributed.
	Transaction struct {
		ID        int64    `json:"id"`
		Name      string   `json:"name"`
		Amount    Amount   `json:"amount"`
		Date      DateTime `json:"date"`
		AccountID int64    `json:"account_id"`
		BucketID  *int64   `json:"bucket_id"`
	}

	TransactionForm struct {
		Name      string   `json:"name"`
		Amount    Amount   `json:"amount"`
		Date      DateTime `json:"date"`
		AccountID int64    `json:"account_id"`
		BucketID  *int64   `json:"bucket_id"`
	}

	// Fill is an allocation of funds into a bucket.
	Fill struct {
		ID       int64    `json:"id"`
		Amount   Amount   `json:"amount"`
		Date     DateTime `json:"date"`
		BucketID int64    `json:"bucket_id"`
	}

	FillForm struct {
		Amount   Amount   `json:"amount"`
		Date     DateTime `json:"date"`
		BucketID int64    `json:"bucket_id"`
	}
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidMonth = errors.New("invalid month")
)

func (a Account) Form() AccountForm { return AccountForm{Name: a.Name} }

func (b Bucket) Form() BucketForm { return BucketForm{Name: b.Name} }

func (t Transaction) Form() TransactionForm {
	return TransactionForm{
		Name:      t.Name,
		Amount:    t.Amount,
		Date:      t.Date,
		AccountID: t.AccountID,
		BucketID:  t.BucketID,
	}
}

func (f Fill) Form() FillForm {
	return FillForm{
		Amount:   f.Amount,
		Date:     f.Date,
		BucketID: f.BucketID,
	}
}

// Validate accepts any name. Uniqueness is the store's decision.
func (f AccountForm) Validate() error { return nil }

func (f BucketForm) Validate() error { return nil }

// Validate rejects payloads that cannot be stored at all. Whether AccountID
// and BucketID reference existing rows is decided by the store, so an unknown
// id (0 included) surfaces as a conflict there.
func (f TransactionForm) Validate() error {
	if f.Date.IsZero() {
		return validationError("date is required")
	}
	return nil
}

func (f FillForm) Validate() error {
	if f.Date.IsZero() {
		return validationError("date is required")
	}
	return nil
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Key returns the row id. It lets generic code read ids without reflection.
func (a Account) Key() int64     { return a.ID }
func (b Bucket) Key() int64      { return b.ID }
func (t Transaction) Key() int64 { return t.ID }
func (f Fill) Key() int64        { return f.ID }
