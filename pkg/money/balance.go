package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Status is the settlement state of a payment record.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPartial Status = "PARTIAL"
)

// Balance is the derived paid/owed view of a payment.
type Balance struct {
	Abono     decimal.Decimal
	Total     decimal.Decimal
	Remaining decimal.Decimal
	Status    Status
}

// Compute derives the balance of a payment. It never fails: malformed inputs
// count as zero, and rounding is left to the formatters.
func Compute(abono, total Value) Balance {
	a := abono.Decimal()
	t := total.Decimal()
	remaining := t.Sub(a)

	status := StatusPartial
	if !remaining.IsPositive() {
		status = StatusPaid
	}

	return Balance{Abono: a, Total: t, Remaining: remaining, Status: status}
}

// Outstanding reports whether there is still something left to pay.
func (b Balance) Outstanding() bool {
	return b.Status == StatusPartial
}

type balanceJSON struct {
	Abono     string `json:"abono"`
	Total     string `json:"total"`
	Remaining string `json:"remaining"`
	Status    Status `json:"status"`
}

// MarshalJSON renders the figures exactly as the receipt prints them.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(balanceJSON{
		Abono:     Fixed2(b.Abono),
		Total:     Fixed2(b.Total),
		Remaining: Fixed2(b.Remaining),
		Status:    b.Status,
	})
}

// UnmarshalJSON accepts the format produced by MarshalJSON.
func (b *Balance) UnmarshalJSON(data []byte) error {
	var raw balanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Balance{
		Abono:     parseString(raw.Abono).Decimal(),
		Total:     parseString(raw.Total).Decimal(),
		Remaining: parseString(raw.Remaining).Decimal(),
		Status:    raw.Status,
	}
	return nil
}
