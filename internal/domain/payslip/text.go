package payslip

import (
	"fmt"
	"strings"
)

const textWidth = 56

func RenderText(st Statement) string {
	var b strings.Builder
	rule := strings.Repeat("-", textWidth)

	fmt.Fprintf(&b, "PAYSTREAM PRO\nMonthly Salary Statement\nPeriod: %s %d\n%s\n", st.Month, st.Year, rule)
	fmt.Fprintf(&b, "Employee: %s (%s)\n", st.EmployeeName, st.EmployeeID)
	if st.Position != "" || st.Department != "" {
		fmt.Fprintf(&b, "Role: %s, %s Division\n", st.Position, st.Department)
	}
	if st.BankAccount != "" {
		fmt.Fprintf(&b, "Disbursement: Bank Account Transfer %s\n", st.BankAccount)
	}

	b.WriteString(rule + "\nEARNINGS\n")
	for _, line := range st.Earnings {
		writeRow(&b, line.Label, Amount(st.Currency, line.Amount))
	}
	writeRow(&b, "Gross Total", Amount(st.Currency, st.GrossTotal))

	b.WriteString(rule + "\nDEDUCTIONS\n")
	for _, line := range st.Deductions {
		writeRow(&b, line.Label, "-"+Amount(st.Currency, line.Amount))
	}
	writeRow(&b, "Total Deductions", "-"+Amount(st.Currency, st.TotalDeductions))

	b.WriteString(rule + "\n")
	writeRow(&b, "NET PAYABLE", Amount(st.Currency, st.NetPay))
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	pad := textWidth - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(label + strings.Repeat(" ", pad) + value + "\n")
}
