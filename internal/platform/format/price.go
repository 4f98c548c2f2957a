// Package format renders customer-facing amounts.
package format

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var chileanPrinter = message.NewPrinter(language.MustParse("es-CL"))

// CurrencyCode is the ISO 4217 code for every stored amount.
var CurrencyCode = currency.MustParseISO("CLP").String()

// Price renders an integer peso amount the way the storefront shows it. Zero renders as "Gratis".
func Price(amount int64) string {
	if amount == 0 {
		return "Gratis"
	}
	if amount < 0 {
		return "-$" + chileanPrinter.Sprintf("%d", -amount)
	}
	return "$" + chileanPrinter.Sprintf("%d", amount)
}
