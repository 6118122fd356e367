// Package memory is an in-process LedgerMirror, used by tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "oba/internal/sheets"
)

type Store struct {
	mu           sync.Mutex
	transactions []ports.TransactionRow
	fills        []ports.FillRow
}

var (
	_ ports.LedgerMirror = (*Store)(nil)
	_ ports.MirrorReader = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, row ports.TransactionRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, row)
	return fmt.Sprintf("mem:transactions:%d", len(s.transactions)), nil
}

func (s *Store) AppendFill(_ context.Context, row ports.FillRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills = append(s.fills, row)
	return fmt.Sprintf("mem:fills:%d", len(s.fills)), nil
}

// ListTransactions returns a copy of the mirrored transactions in append
// order.
func (s *Store) ListTransactions(_ context.Context) ([]ports.TransactionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.TransactionRow(nil), s.transactions...), nil
}

func (s *Store) ListFills(_ context.Context) ([]ports.FillRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.FillRow(nil), s.fills...), nil
}
