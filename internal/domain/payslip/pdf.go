package payslip

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

func WritePDF(w io.Writer, st Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s %d", st.EmployeeName, st.Month, st.Year), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(120, 10, "PAYSTREAM PRO")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s %d", st.Month, st.Year), "", 0, "R", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Monthly Salary Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, st.EmployeeName)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s, %s Division", st.Position, st.Department))
	pdf.Ln(6)
	if st.BankAccount != "" {
		pdf.Cell(0, 6, "Bank Account Transfer: "+st.BankAccount)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	section := func(title string, lines []Line, sign string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range lines {
			pdf.CellFormat(120, 7, line.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, sign+Amount(st.Currency, line.Amount), "", 1, "R", false, 0, "")
		}
	}

	section("Earnings", st.Earnings, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 8, "Gross Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, Amount(st.Currency, st.GrossTotal), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	section("Deductions", st.Deductions, "-")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 8, "Total Deductions", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "-"+Amount(st.Currency, st.TotalDeductions), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(120, 12, "Net Payable", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 12, Amount(st.Currency, st.NetPay), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}
