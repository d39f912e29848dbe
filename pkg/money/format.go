package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var mexico = language.MustParse("es-MX")

// Fixed2 formats an amount with exactly two decimals ("1234.50").
func Fixed2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Currency formats an amount the way the console shows money in es-MX:
// "$1,234.50".
func Currency(d decimal.Decimal) string {
	sign := ""
	rounded := d.Round(2)
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	p := message.NewPrinter(mexico)
	return sign + "$" + p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
}
