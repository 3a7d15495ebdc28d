package payroll

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeMonth returns the canonical English month name for raw, accepting
// any letter case and three-letter abbreviations.
func NormalizeMonth(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrInvalidMonth
	}
	title := cases.Title(language.English).String(strings.ToLower(value))
	for _, month := range Months {
		if title == month || (len(title) == 3 && strings.HasPrefix(month, title)) {
			return month, nil
		}
	}
	return "", ErrInvalidMonth
}

func ValidateYear(year int) error {
	if year < 1900 || year > 9999 {
		return ErrInvalidYear
	}
	return nil
}
