package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders an amount for printing with thousands separators and
// two decimal places, e.g. 1234567.5 -> "1,234,567.50".
func Format(v float64) string {
	return printer.Sprintf("%.2f", Round2(v))
}

// FormatWithCode prefixes the currency code, e.g. "KES 1,250.00".
func FormatWithCode(code string, v float64) string {
	if code == "" {
		return Format(v)
	}
	return code + " " + Format(v)
}
