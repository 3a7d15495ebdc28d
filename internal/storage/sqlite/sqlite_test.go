package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/domain/core"
	"paystream/internal/storage"
	"paystream/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paystream.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateEmployee(ctx, storagetest.Employee("EMP001", "john@example.com", 150000)))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "EMP001", list[0].ID)
}

func TestEmptyJoiningDateStoredAsNull(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	emp := storagetest.Employee("EMP009", "nodate@example.com", 1)
	emp.JoiningDate = ""
	require.NoError(t, s.CreateEmployee(ctx, emp))

	rows, err := s.queryMaps(ctx, `SELECT "joiningDate" FROM employees WHERE "id" = ?`, emp.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["joiningDate"])

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", list[0].JoiningDate)
	assert.Equal(t, core.StatusActive, list[0].Status)
}
