package ledgerhandler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/app/controller"
	"paystream/internal/domain/ledger"
	"paystream/internal/storage/memory"
	"paystream/internal/storage/storagetest"
	"paystream/internal/transport/http/handlers/handlertest"
)

func newRouter(t *testing.T) (http.Handler, *controller.Controller, *memory.Store) {
	t.Helper()
	c, store := handlertest.Controller(t, controller.Options{},
		storagetest.Employee("EMP001", "john@example.com", 150000),
		storagetest.Employee("EMP002", "jane@example.com", 180000),
	)
	return handlertest.Router(NewHandler(c).RegisterRoutes), c, store
}

func TestIssueAdvanceRaisesAccumulator(t *testing.T) {
	router, c, _ := newRouter(t)

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/advances", map[string]any{
		"employeeId": "EMP001",
		"amount":     20000,
		"reason":     " Emergency medical bill ",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tx ledger.Transaction
	handlertest.Decode(t, rec, &tx)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "EMP001", tx.EmployeeID)
	assert.Equal(t, "Emergency medical bill", tx.Reason)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(20000)))

	rec = handlertest.Do(t, router, http.MethodPost, "/api/v1/advances", map[string]any{
		"employeeId": "EMP001",
		"amount":     "5000.50",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	john, err := c.Employee("EMP001")
	require.NoError(t, err)
	assert.True(t, john.SalaryAdvance.Equal(decimal.RequireFromString("25000.50")), john.SalaryAdvance.String())
	assert.True(t, john.Gifts.IsZero())

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/advances", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ledger.Transaction
	handlertest.Decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("5000.50")), "newest first")
}

func TestIssueBonusAndFilter(t *testing.T) {
	router, c, _ := newRouter(t)

	for _, id := range []string{"EMP001", "EMP002"} {
		rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/bonuses", map[string]any{
			"employeeId": id,
			"amount":     1000,
			"reason":     "Festival",
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	jane, err := c.Employee("EMP002")
	require.NoError(t, err)
	assert.True(t, jane.Gifts.Equal(decimal.NewFromInt(1000)))
	assert.True(t, jane.SalaryAdvance.IsZero())

	rec := handlertest.Do(t, router, http.MethodGet, "/api/v1/bonuses?employeeId=EMP002", nil, nil)
	var list []ledger.Transaction
	handlertest.Decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "EMP002", list[0].EmployeeID)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/advances", nil, nil)
	handlertest.Decode(t, rec, &list)
	assert.Empty(t, list)
}

func TestIssueRejectsInvalidGrants(t *testing.T) {
	router, c, _ := newRouter(t)

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"missing employee", map[string]any{"amount": 100}, http.StatusBadRequest, "validation_error"},
		{"zero amount", map[string]any{"employeeId": "EMP001", "amount": 0}, http.StatusBadRequest, "validation_error"},
		{"negative amount", map[string]any{"employeeId": "EMP001", "amount": -10}, http.StatusBadRequest, "validation_error"},
		{"unknown employee", map[string]any{"employeeId": "EMP404", "amount": 100}, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/advances", tc.body, nil)
		assert.Equal(t, tc.status, rec.Code, tc.name)
		assert.Equal(t, tc.code, handlertest.ErrorCode(t, rec), tc.name)
	}
	assert.Empty(t, c.Transactions(ledger.KindAdvance))
}

func TestIssueStoreFailureLeavesStateUntouched(t *testing.T) {
	router, c, store := newRouter(t)
	store.SetFailure(errors.New("connection reset"))

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/bonuses", map[string]any{
		"employeeId": "EMP001",
		"amount":     500,
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "bonus_issue_failed", handlertest.ErrorCode(t, rec))

	john, err := c.Employee("EMP001")
	require.NoError(t, err)
	assert.True(t, john.Gifts.IsZero())

	store.SetFailure(nil)
	stored, err := store.ListTransactions(context.Background(), ledger.KindBonus)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
