package core

// BucketBalance is what a bucket received through fills against what was
// spent from it. Spent is the signed sum of attributed transactions, so
// Remaining = Filled + Spent.
type BucketBalance struct {
	BucketID  int64  `json:"bucket_id"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	Filled    Amount `json:"filled"`
	Spent     Amount `json:"spent"`
	Remaining Amount `json:"remaining"`
}

// AccountBalance splits an account's transactions into income and expenses.
type AccountBalance struct {
	AccountID int64  `json:"account_id"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	Income    Amount `json:"income"`
	Expenses  Amount `json:"expenses"`
	Net       Amount `json:"net"`
}

// Period is an optional calendar month scope for balance queries.
type Period struct {
	Year  int
	Month int
}

// Range resolves the period to its half-open interval.
func (p Period) Range() (from, to DateTime, err error) {
	return MonthRange(p.Year, p.Month)
}
