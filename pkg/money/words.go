package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var smallWords = [...]string{
	"CERO", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
	"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE", "DIECISÉIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
	"VEINTE", "VEINTIUNO", "VEINTIDÓS", "VEINTITRÉS", "VEINTICUATRO", "VEINTICINCO", "VEINTISÉIS", "VEINTISIETE", "VEINTIOCHO", "VEINTINUEVE",
}

var tensWords = [...]string{
	"", "", "", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA",
}

var hundredsWords = [...]string{
	"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS", "QUINIENTOS",
	"SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
}

// Words spells an amount in Mexican invoice style:
// 1234.5 -> "MIL DOSCIENTOS TREINTA Y CUATRO PESOS 50/100 M.N.".
func Words(d decimal.Decimal) string {
	rounded := d.Round(2)
	prefix := ""
	if rounded.IsNegative() {
		prefix = "MENOS "
		rounded = rounded.Abs()
	}

	whole := rounded.IntPart()
	cents := rounded.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()

	var currency string
	switch {
	case whole == 1:
		currency = "PESO"
	case whole > 0 && whole%1_000_000 == 0:
		currency = "DE PESOS"
	default:
		currency = "PESOS"
	}

	return fmt.Sprintf("%s%s %s %02d/100 M.N.", prefix, integerWords(whole), currency, cents)
}

func integerWords(n int64) string {
	if n == 0 {
		return smallWords[0]
	}

	millions, rest := n/1_000_000, n%1_000_000
	parts := make([]string, 0, 2)
	switch {
	case millions == 1:
		parts = append(parts, "UN MILLÓN")
	case millions > 1:
		parts = append(parts, thousandsWords(millions)+" MILLONES")
	}
	if rest > 0 {
		parts = append(parts, thousandsWords(rest))
	}
	return strings.Join(parts, " ")
}

// thousandsWords spells 1..999999 with the apocopated "UN" form, since every
// caller puts a noun (MIL, MILLONES, PESOS) after it.
func thousandsWords(n int64) string {
	if n >= 1_000_000 {
		return integerWords(n)
	}
	th, rest := int(n/1000), int(n%1000)
	parts := make([]string, 0, 2)
	switch {
	case th == 1:
		parts = append(parts, "MIL")
	case th > 1:
		parts = append(parts, hundredsToWords(th)+" MIL")
	}
	if rest > 0 {
		parts = append(parts, hundredsToWords(rest))
	}
	return strings.Join(parts, " ")
}

func hundredsToWords(n int) string {
	if n == 100 {
		return "CIEN"
	}
	h, rest := n/100, n%100
	parts := make([]string, 0, 2)
	if h > 0 {
		parts = append(parts, hundredsWords[h])
	}
	if rest > 0 {
		parts = append(parts, tensToWords(rest))
	}
	return strings.Join(parts, " ")
}

func tensToWords(n int) string {
	switch {
	case n == 1:
		return "UN"
	case n == 21:
		return "VEINTIÚN"
	case n < 30:
		return smallWords[n]
	}
	t, u := n/10, n%10
	if u == 0 {
		return tensWords[t]
	}
	return tensWords[t] + " Y " + tensToWords(u)
}
