package http

import (
	"net/http"

	"oba/internal/core"
)

// Scoped listings and balances. Each route is mounted twice: plain, and with
// a trailing /{year}/{month} that narrows it to one calendar month.
func (s *Server) registerScoped(mux *http.ServeMux) {
	for _, suffix := range []string{"", "/{year}/{month}"} {
		mux.HandleFunc("GET /account/{id}/transactions"+suffix, s.handleAccountTransactions)
		mux.HandleFunc("GET /bucket/{id}/transactions"+suffix, s.handleBucketTransactions)
		mux.HandleFunc("GET /bucket/{id}/fills"+suffix, s.handleBucketFills)
		mux.HandleFunc("GET /bucket/{id}/balance"+suffix, s.handleBucketBalance)
		mux.HandleFunc("GET /account/{id}/balance"+suffix, s.handleAccountBalance)
	}
}

// scopedArgs reads the parent id and the optional month.
func scopedArgs(r *http.Request) (int64, *core.Period, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return 0, nil, err
	}
	period, err := pathPeriod(r)
	if err != nil {
		return 0, nil, err
	}
	return id, period, nil
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, period, err := scopedArgs(r)
	if err != nil {
		writeError(w, r, core.EntityAccount, err)
		return
	}

	var txs []core.Transaction
	if period == nil {
		txs, err = s.ledger.Transactions.ListForAccount(r.Context(), id)
	} else {
		txs, err = s.ledger.Transactions.ListForAccountInMonth(r.Context(), id, period.Year, period.Month)
	}
	if err != nil {
		writeError(w, r, core.EntityAccount, err)
		return
	}
	NewResponse().JSON(txs).Write(w)
}

func (s *Server) handleBucketTransactions(w http.ResponseWriter, r *http.Request) {
	id, period, err := scopedArgs(r)
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}

	var txs []core.Transaction
	if period == nil {
		txs, err = s.ledger.Transactions.ListForBucket(r.Context(), id)
	} else {
		txs, err = s.ledger.Transactions.ListForBucketInMonth(r.Context(), id, period.Year, period.Month)
	}
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}
	NewResponse().JSON(txs).Write(w)
}

func (s *Server) handleBucketFills(w http.ResponseWriter, r *http.Request) {
	id, period, err := scopedArgs(r)
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}

	var fills []core.Fill
	if period == nil {
		fills, err = s.ledger.Fills.ListForBucket(r.Context(), id)
	} else {
		fills, err = s.ledger.Fills.ListForBucketInMonth(r.Context(), id, period.Year, period.Month)
	}
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}
	NewResponse().JSON(fills).Write(w)
}

func (s *Server) handleBucketBalance(w http.ResponseWriter, r *http.Request) {
	id, period, err := scopedArgs(r)
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}
	b, err := s.ledger.Balances.Bucket(r.Context(), id, period)
	if err != nil {
		writeError(w, r, core.EntityBucket, err)
		return
	}
	NewResponse().JSON(b).Write(w)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, period, err := scopedArgs(r)
	if err != nil {
		writeError(w, r, core.EntityAccount, err)
		return
	}
	b, err := s.ledger.Balances.Account(r.Context(), id, period)
	if err != nil {
		writeError(w, r, core.EntityAccount, err)
		return
	}
	NewResponse().JSON(b).Write(w)
}
