package corehandler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/app/controller"
	"paystream/internal/domain/core"
	"paystream/internal/domain/payslip"
	"paystream/internal/storage/storagetest"
	"paystream/internal/transport/http/handlers/handlertest"
)

func newRouter(t *testing.T, employees ...core.Employee) (http.Handler, *controller.Controller) {
	t.Helper()
	c, _ := handlertest.Controller(t, controller.Options{}, employees...)
	return handlertest.Router(NewHandler(c).RegisterRoutes), c
}

func TestCreateAndGetEmployee(t *testing.T) {
	router, c := newRouter(t)

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/employees", map[string]any{
		"firstName":   " Jane ",
		"lastName":    "Smith",
		"email":       "Jane.Smith@Company.com",
		"department":  "Marketing",
		"position":    "Lead",
		"baseSalary":  "180000",
		"allowances":  10000,
		"deductions":  3000,
		"status":      "Terminated",
		"bankAccount": "HNB 9876543210",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Employee
	env := handlertest.Decode(t, rec, &created)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Jane", created.FirstName)
	assert.Equal(t, "jane.smith@company.com", created.Email)
	assert.Equal(t, core.StatusActive, created.Status, "new hires always start active")
	assert.Equal(t, "2024-12-01", created.JoiningDate)
	assert.True(t, created.Gifts.IsZero())
	assert.True(t, created.BaseSalary.Equal(decimal.NewFromInt(180000)))
	assert.Len(t, c.Employees(), 1)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched core.Employee
	handlertest.Decode(t, rec, &fetched)
	assert.Equal(t, "HNB 9876543210", fetched.BankAccount)
}

func TestCreateEmployeeValidation(t *testing.T) {
	router, c := newRouter(t)

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/employees", map[string]any{
		"firstName":  "",
		"lastName":   "Smith",
		"email":      "not-an-email",
		"baseSalary": -5,
		"status":     "Retired",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := handlertest.Decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
	for _, field := range []string{"firstName", "email", "baseSalary", "status"} {
		assert.Contains(t, string(env.Error.Details), `"`+field+`"`)
	}
	assert.Empty(t, c.Employees())

	rec = handlertest.Do(t, router, http.MethodPost, "/api/v1/employees", strings.NewReader("{"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", handlertest.ErrorCode(t, rec))
}

func TestCreateEmployeeDuplicateEmail(t *testing.T) {
	router, _ := newRouter(t, storagetest.Employee("EMP001", "john@example.com", 150000))

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/employees", map[string]any{
		"firstName": "Johnny",
		"lastName":  "Doe",
		"email":     "JOHN@example.com",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_email", handlertest.ErrorCode(t, rec))
}

func TestCreateEmployeeDuplicateID(t *testing.T) {
	router, _ := newRouter(t, storagetest.Employee("EMP001", "john@example.com", 150000))

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/employees", map[string]any{
		"id":        "EMP001",
		"firstName": "Other",
		"lastName":  "Person",
		"email":     "other@example.com",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_id", handlertest.ErrorCode(t, rec))
}

func TestListEmployeesMasksAndFilters(t *testing.T) {
	onLeave := storagetest.Employee("EMP002", "jane@example.com", 90000)
	onLeave.Status = core.StatusOnLeave
	onLeave.Department = "Marketing"
	router, _ := newRouter(t, storagetest.Employee("EMP001", "john@example.com", 150000), onLeave)

	rec := handlertest.Do(t, router, http.MethodGet, "/api/v1/employees", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []core.Employee
	handlertest.Decode(t, rec, &all)
	require.Len(t, all, 2)
	assert.Equal(t, "******P001", all[0].BankAccount)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees?status=on+leave", nil, nil)
	var filtered []core.Employee
	handlertest.Decode(t, rec, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "EMP002", filtered[0].ID)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees?department=engineering", nil, nil)
	handlertest.Decode(t, rec, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "EMP001", filtered[0].ID)
}

func TestUpdateAndDeleteEmployee(t *testing.T) {
	router, c := newRouter(t, storagetest.Employee("EMP001", "john@example.com", 150000))

	rec := handlertest.Do(t, router, http.MethodPut, "/api/v1/employees/EMP001", map[string]any{
		"firstName":  "John",
		"lastName":   "Doe",
		"email":      "john@example.com",
		"baseSalary": 160000,
		"status":     "on leave",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated core.Employee
	handlertest.Decode(t, rec, &updated)
	assert.Equal(t, core.StatusOnLeave, updated.Status)
	assert.True(t, updated.BaseSalary.Equal(decimal.NewFromInt(160000)))

	rec = handlertest.Do(t, router, http.MethodPut, "/api/v1/employees/NOPE", map[string]any{
		"firstName": "A", "lastName": "B", "email": "a@b.com",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = handlertest.Do(t, router, http.MethodDelete, "/api/v1/employees/EMP001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, c.Employees())

	rec = handlertest.Do(t, router, http.MethodDelete, "/api/v1/employees/EMP001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees/EMP001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayslipFormats(t *testing.T) {
	emp := storagetest.Employee("EMP001", "john@example.com", 150000)
	emp.Allowances = decimal.NewFromInt(10000)
	emp.SalaryAdvance = decimal.NewFromInt(20000)
	router, _ := newRouter(t, emp)

	rec := handlertest.Do(t, router, http.MethodGet, "/api/v1/employees/EMP001/payslip?month=december&year=2024", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st payslip.Statement
	handlertest.Decode(t, rec, &st)
	assert.Equal(t, "December", st.Month)
	assert.True(t, st.NetPay.Equal(decimal.NewFromInt(140000)), st.NetPay.String())

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees/EMP001/payslip?month=December&year=2024&format=text", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "NET PAYABLE")
	assert.Contains(t, rec.Body.String(), "Period: December 2024")

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/employees/EMP001/payslip?month=December&year=2024&format=pdf", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-EMP001-december-2024.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestPayslipRejectsBadInput(t *testing.T) {
	router, _ := newRouter(t, storagetest.Employee("EMP001", "john@example.com", 150000))

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/employees/EMP001/payslip?month=December", http.StatusBadRequest, "validation_error"},
		{"/api/v1/employees/EMP001/payslip?month=Smarch&year=2024", http.StatusBadRequest, "validation_error"},
		{"/api/v1/employees/EMP001/payslip?month=December&year=2024&format=docx", http.StatusBadRequest, "validation_error"},
		{"/api/v1/employees/EMP404/payslip?month=December&year=2024", http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		rec := handlertest.Do(t, router, http.MethodGet, tc.path, nil, nil)
		assert.Equal(t, tc.status, rec.Code, tc.path)
		assert.Equal(t, tc.code, handlertest.ErrorCode(t, rec), tc.path)
	}
}
