package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/domain/core"
)

func TestNewGrantAdvance(t *testing.T) {
	emp := core.Employee{ID: "EMP001", FirstName: "John", LastName: "Doe", SalaryAdvance: decimal.NewFromInt(20000)}
	now := time.Date(2024, 11, 10, 8, 0, 0, 0, time.UTC)

	grant, err := NewGrant(KindAdvance, emp, decimal.NewFromInt(5000), " rent ", now)
	require.NoError(t, err)

	assert.True(t, grant.NewTotal.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, "John Doe", grant.Transaction.EmployeeName)
	assert.Equal(t, "rent", grant.Transaction.Reason)
	assert.Equal(t, now, grant.Transaction.Date)
	assert.NotEmpty(t, grant.Transaction.ID)

	updated := grant.Kind.Apply(emp, grant.NewTotal)
	assert.True(t, updated.SalaryAdvance.Equal(decimal.NewFromInt(25000)))
	assert.True(t, updated.Gifts.IsZero())
}

func TestNewGrantBonusUsesGifts(t *testing.T) {
	emp := core.Employee{ID: "EMP002", Gifts: decimal.NewFromInt(100), SalaryAdvance: decimal.NewFromInt(999)}
	grant, err := NewGrant(KindBonus, emp, decimal.NewFromInt(50), "", time.Now())
	require.NoError(t, err)
	assert.True(t, grant.NewTotal.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "gifts", grant.Kind.Column())
}

func TestNewGrantRejectsBadInput(t *testing.T) {
	emp := core.Employee{ID: "EMP001"}
	_, err := NewGrant(KindAdvance, emp, decimal.Zero, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NewGrant(KindAdvance, emp, decimal.NewFromInt(-5), "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NewGrant(Kind("loan"), emp, decimal.NewFromInt(5), "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidKind)
}
