package exporter

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gasrate/pkg/contracts/domain"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders gas and weight with thousands separators and no decimals.
func formatAmount(f float64) string {
	return printer.Sprintf("%.0f", f)
}

// formatRate renders a specific rate with exactly one decimal place.
func formatRate(f float64) string {
	return printer.Sprintf("%.1f", f)
}

// formatDate renders a calendar day as yyyy-mm-dd.
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
