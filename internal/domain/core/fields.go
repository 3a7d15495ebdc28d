package core

import "strings"

// MaskedBankAccount hides all but the last four characters of the account
// number for documents that leave the system, such as archived payslips.
func (e Employee) MaskedBankAccount() string {
	account := strings.TrimSpace(e.BankAccount)
	if account == "" {
		return ""
	}
	runes := []rune(account)
	if len(runes) <= 4 {
		return account
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
