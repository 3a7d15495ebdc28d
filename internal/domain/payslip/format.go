package payslip

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount renders a value with thousands separators and two decimals.
func Amount(currency string, v decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s %.2f", currency, v.Round(2).InexactFloat64())
}
