package models

import (
	"time"

	"github.com/ivc-chiapas/folios-console/pkg/money"
)

// Payment is a folio as returned by the backend, with the student fields
// copied in at read time. Those copies are not kept in sync with the student.
type Payment struct {
	ID              FlexString  `json:"id"`
	Folio           FlexString  `json:"folio"`
	StudentID       FlexString  `json:"student_id"`
	Month           FlexString  `json:"mes_pago"`
	Year            FlexString  `json:"anio_pago"`
	CreatedAt       string      `json:"fecha_creacion"`
	Note            string      `json:"nota"`
	Abono           money.Value `json:"abono"`
	Total           money.Value `json:"total"`
	GivenName       string      `json:"nombre"`
	PaternalSurname string      `json:"apellido_paterno"`
	MaternalSurname string      `json:"apellido_materno"`
	EducationLevel  string      `json:"nivel_educativo"`
	Tutor           string      `json:"tutor"`
	TutorPhone      string      `json:"numero_telefonico_tutor"`
}

// StudentName is the denormalised student name.
func (p Payment) StudentName() string {
	return joinName(p.GivenName, p.PaternalSurname, p.MaternalSurname)
}

// Balance derives the paid/owed state.
func (p Payment) Balance() money.Balance {
	return money.Compute(p.Abono, p.Total)
}

// CreatedTime parses fecha_creacion as UTC, returning false when it is
// missing or in an unknown format.
func (p Payment) CreatedTime() (time.Time, bool) {
	return p.CreatedTimeIn(time.UTC)
}

// CreatedTimeIn parses fecha_creacion and converts it to loc. Timestamps
// without a zone are read as already local to loc.
func (p Payment) CreatedTimeIn(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, p.CreatedAt, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// PaymentView is a payment enriched with its computed balance for list views.
type PaymentView struct {
	Payment
	Balance money.Balance `json:"balance"`
}

// NewPaymentViews computes the balance of every payment.
func NewPaymentViews(payments []Payment) []PaymentView {
	views := make([]PaymentView, len(payments))
	for i, p := range payments {
		views[i] = PaymentView{Payment: p, Balance: p.Balance()}
	}
	return views
}

// PaymentInput is the payload sent to the backend when a folio is created.
type PaymentInput struct {
	StudentID string      `json:"student_id"`
	Month     int         `json:"mes_pago"`
	Year      int         `json:"anio_pago"`
	Total     money.Value `json:"total"`
	Abono     money.Value `json:"abono"`
	Note      string      `json:"nota,omitempty"`
}
