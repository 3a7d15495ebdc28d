package record

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupResolutionOrder(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
		key  string
		want any
	}{
		{name: "exact", rec: map[string]any{"employeeId": "a", "employee_id": "b"}, key: "employeeId", want: "a"},
		{name: "lowercase", rec: map[string]any{"employeeid": "b", "employee_id": "c"}, key: "employeeId", want: "b"},
		{name: "snake case", rec: map[string]any{"employee_id": "c", "EMPLOYEEID": "d"}, key: "employeeId", want: "c"},
		{name: "case insensitive scan", rec: map[string]any{"EmployeeID": "d"}, key: "employeeId", want: "d"},
		{name: "base salary snake", rec: map[string]any{"base_salary": 150000}, key: "baseSalary", want: 150000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Lookup(tc.rec, tc.key)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookupAbsent(t *testing.T) {
	_, ok := Lookup(nil, "id")
	assert.False(t, ok)

	_, ok = Lookup(map[string]any{"name": "x"}, "id")
	assert.False(t, ok)

	_, ok = Lookup(map[string]any{"id": nil}, "id")
	assert.False(t, ok, "nil values count as absent")
}

func TestLookupNilFallsThroughToLaterForms(t *testing.T) {
	got, ok := Lookup(map[string]any{"salaryAdvance": nil, "salary_advance": "20000"}, "salaryAdvance")
	require.True(t, ok)
	assert.Equal(t, "20000", got)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "employee_id", SnakeCase("employeeId"))
	assert.Equal(t, "processed_date", SnakeCase("processedDate"))
	assert.Equal(t, "month", SnakeCase("month"))
	assert.Equal(t, "_i_d", SnakeCase("ID"))
}

func TestNumberCoercion(t *testing.T) {
	rec := map[string]any{
		"f":       150000.5,
		"i":       int64(42),
		"s":       " 20000 ",
		"b":       []byte("12.75"),
		"j":       json.Number("99"),
		"d":       decimal.RequireFromString("1.10"),
		"junk":    "abc",
		"empty":   "",
		"nan":     math.NaN(),
		"inf":     math.Inf(1),
		"boolean": true,
	}

	assert.True(t, decimal.NewFromFloat(150000.5).Equal(Number(rec, "f")))
	assert.True(t, decimal.NewFromInt(42).Equal(Number(rec, "i")))
	assert.True(t, decimal.NewFromInt(20000).Equal(Number(rec, "s")))
	assert.True(t, decimal.RequireFromString("12.75").Equal(Number(rec, "b")))
	assert.True(t, decimal.NewFromInt(99).Equal(Number(rec, "j")))
	assert.True(t, decimal.RequireFromString("1.1").Equal(Number(rec, "d")))

	for _, key := range []string{"junk", "empty", "nan", "inf", "boolean", "missing"} {
		assert.True(t, Number(rec, key).IsZero(), "expected %s to coerce to zero", key)
	}
}

func TestIntAndString(t *testing.T) {
	rec := map[string]any{"year": "2024", "YEAR_FLOAT": 2024.0, "name": []byte("Jane")}
	assert.Equal(t, 2024, Int(rec, "year"))
	assert.Equal(t, 2024, Int(rec, "year_float"))
	assert.Equal(t, "Jane", String(rec, "name"))
	assert.Equal(t, "", String(rec, "missing"))
}

func TestTimeAndDate(t *testing.T) {
	stamp := time.Date(2024, 11, 30, 10, 0, 0, 0, time.UTC)
	rec := map[string]any{
		"processed_date": stamp,
		"joiningDate":    "2022-03-15",
		"sqlite":         "2024-11-30 10:00:00",
		"bad":            "yesterday",
	}
	assert.True(t, stamp.Equal(Time(rec, "processedDate")))
	assert.Equal(t, "2022-03-15", Date(rec, "joiningDate"))
	assert.True(t, stamp.Equal(Time(rec, "sqlite")))
	assert.True(t, Time(rec, "bad").IsZero())
	assert.Equal(t, "yesterday", Date(rec, "bad"))
}
