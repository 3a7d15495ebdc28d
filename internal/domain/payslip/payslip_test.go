package payslip

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/domain/core"
	"paystream/internal/domain/payroll"
	"paystream/internal/platform/crypto"
)

func john() core.Employee {
	return core.Employee{
		ID:            "EMP001",
		FirstName:     "John",
		LastName:      "Doe",
		Department:    "Engineering",
		Position:      "Senior Dev",
		BankAccount:   "BOC-1234",
		BaseSalary:    decimal.NewFromInt(150000),
		Allowances:    decimal.NewFromInt(10000),
		SalaryAdvance: decimal.NewFromInt(20000),
	}
}

func TestBuildMatchesDraftNet(t *testing.T) {
	emp := john()
	st := Build(emp, "November", 2024, "")
	drafts := payroll.BuildDrafts([]core.Employee{emp}, "November", 2024, time.Now())

	require.Len(t, drafts, 1)
	assert.True(t, st.NetPay.Equal(drafts[0].NetPay))
	assert.True(t, st.GrossTotal.Equal(drafts[0].GrossPay))
	assert.True(t, st.TotalDeductions.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, DefaultCurrency, st.Currency)
}

func TestBuildOptionalLines(t *testing.T) {
	st := Build(john(), "November", 2024, "LKR")
	require.Len(t, st.Earnings, 2)
	assert.Equal(t, "Allowances", st.Earnings[1].Label)
	require.Len(t, st.Deductions, 1)
	assert.Equal(t, "Advance recovery", st.Deductions[0].Label)

	bare := Build(core.Employee{ID: "x", BaseSalary: decimal.NewFromInt(1)}, "May", 2025, "LKR")
	assert.Len(t, bare.Earnings, 1)
	assert.Empty(t, bare.Deductions)
}

func TestRenderText(t *testing.T) {
	out := RenderText(Build(john(), "November", 2024, "Rs."))
	assert.Contains(t, out, "Period: November 2024")
	assert.Contains(t, out, "Rs. 150,000.00")
	assert.Contains(t, out, "-Rs. 20,000.00")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "NET PAYABLE"))
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "Rs. 140,000.00"))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Build(john(), "November", 2024, "")))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestArchiveSealsAndLoads(t *testing.T) {
	svc, err := crypto.New("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	archive := NewArchive(t.TempDir(), svc)

	path, err := archive.Save(Build(john(), "November", 2024, ""))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "454d50303031_2024_november.pdf"+crypto.SealedSuffix))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	pdf, err := archive.Load("EMP001", "November", 2024)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestArchiveKeepsLookalikeIDsApart(t *testing.T) {
	svc, err := crypto.New("")
	require.NoError(t, err)
	archive := NewArchive(t.TempDir(), svc)

	dotted := john()
	dotted.ID = "EMP.1"
	dotted.BaseSalary = decimal.NewFromInt(100000)
	underscored := john()
	underscored.ID = "EMP_1"
	underscored.BaseSalary = decimal.NewFromInt(250000)

	first, err := archive.Save(Build(dotted, "November", 2024, ""))
	require.NoError(t, err)
	second, err := archive.Save(Build(underscored, "November", 2024, ""))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.Equal(t, first, archive.path("EMP.1", "November", 2024))

	dottedPDF, err := archive.Load("EMP.1", "November", 2024)
	require.NoError(t, err)
	underscoredPDF, err := archive.Load("EMP_1", "November", 2024)
	require.NoError(t, err)
	assert.NotEqual(t, dottedPDF, underscoredPDF)
}

func TestBuildMasksBankAccount(t *testing.T) {
	emp := john()
	emp.BankAccount = "BOC-987654321"
	st := Build(emp, "November", 2024, "")
	assert.Equal(t, "*********4321", st.BankAccount)
	assert.NotContains(t, RenderText(st), "98765")
}
