package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oba/internal/core"
	ports "oba/internal/sheets"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.AppendTransaction(ctx, ports.TransactionRow{ID: 1, Name: "Salary", Amount: core.NewAmount(1300), Account: "banking"})
	require.NoError(t, err)
	assert.Equal(t, "mem:transactions:1", ref)

	ref, err = s.AppendFill(ctx, ports.FillRow{ID: 1, Amount: core.NewAmount(950), Bucket: "Bills"})
	require.NoError(t, err)
	assert.Equal(t, "mem:fills:1", ref)

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Salary", txs[0].Name)

	fills, err := s.ListFills(ctx)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "Bills", fills[0].Bucket)
}

func TestMemoryStoreListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.AppendFill(ctx, ports.FillRow{ID: 1, Bucket: "Bills"})
	require.NoError(t, err)

	fills, _ := s.ListFills(ctx)
	fills[0].Bucket = "changed"

	again, _ := s.ListFills(ctx)
	assert.Equal(t, "Bills", again[0].Bucket)
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = s.AppendFill(ctx, ports.FillRow{ID: id})
		}(int64(i + 1))
	}
	wg.Wait()

	fills, err := s.ListFills(ctx)
	require.NoError(t, err)
	assert.Len(t, fills, 50)
}
