package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oba/internal/buildinfo"
	"oba/internal/core"
	"oba/internal/storage"
)

// setupEnv points every command at a fresh database and disables the
// broker.
func setupEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "oba.db")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func runOba(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runOba(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, buildinfo.Version)
	assert.Contains(t, out, "commit: "+buildinfo.Commit)
}

func TestMigrateUpDownVersion(t *testing.T) {
	setupEnv(t)

	out, err := runOba(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0 (dirty: false)")

	out, err = runOba(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 4 (dirty: false)")

	out, err = runOba(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 3")

	out, err = runOba(t, "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = runOba(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 4")
}

func TestResetRequiresConfirmation(t *testing.T) {
	setupEnv(t)

	_, err := runOba(t, "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestResetEmptiesLedger(t *testing.T) {
	dbPath := setupEnv(t)
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(dbPath, 1)
	require.NoError(t, err)
	acc, err := store.Accounts.Insert(ctx, core.AccountForm{Name: "Checking"})
	require.NoError(t, err)
	bucket, err := store.Buckets.Insert(ctx, core.BucketForm{Name: "Bills"})
	require.NoError(t, err)
	_, err = store.Transactions.Insert(ctx, core.TransactionForm{
		Name: "Rent", Amount: core.NewAmount(-750), Date: core.NewDateTime(2022, 7, 2, 0, 0, 0),
		AccountID: acc.ID, BucketID: &bucket.ID,
	})
	require.NoError(t, err)
	_, err = store.Fills.Insert(ctx, core.FillForm{
		Amount: core.NewAmount(800), Date: core.NewDateTime(2022, 7, 1, 0, 0, 0), BucketID: bucket.ID,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := runOba(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "ledger reset: 4 rows removed")

	store, err = storage.NewSQLiteStore(dbPath, 1)
	require.NoError(t, err)
	defer store.Close()
	for _, count := range []func(context.Context) (int64, error){
		store.Accounts.Count, store.Buckets.Count, store.Transactions.Count, store.Fills.Count,
	} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := runOba(t, "migrate", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestExportWritesWorkbook(t *testing.T) {
	setupEnv(t)
	out := filepath.Join(t.TempDir(), "ledger.xlsx")

	stdout, err := runOba(t, "export", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)
	assert.FileExists(t, out)
}
