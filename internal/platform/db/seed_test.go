package db

import (
	"context"
	"io/fs"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/domain/ledger"
	"paystream/internal/domain/settings"
	"paystream/internal/storage/memory"
)

func TestSeedPopulatesEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, Seed(ctx, store))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 3)
	assert.True(t, employees[0].SalaryAdvance.Equal(decimal.NewFromInt(20000)))

	history, err := store.ListPayroll(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	advances, err := store.ListTransactions(ctx, ledger.KindAdvance)
	require.NoError(t, err)
	require.Len(t, advances, 1)
	assert.Equal(t, "ADV_001", advances[0].ID)

	stored, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultDepartments, stored[settings.KeyDepartments])
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, Seed(ctx, store))
	require.NoError(t, Seed(ctx, store))

	history, err := store.ListPayroll(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSeedKeepsSavedSettings(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveSetting(ctx, settings.KeyPositions, []string{"Clerk"}))
	require.NoError(t, Seed(ctx, store))

	stored, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Clerk"}, stored[settings.KeyPositions])
}

func TestMigrationsEmbedded(t *testing.T) {
	data, err := fs.ReadFile(Migrations(), "0001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "payroll_period_unique")
}
