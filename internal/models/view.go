package models

// ViewName identifies a console screen.
type ViewName string

const (
	ViewStudents ViewName = "students"
	ViewPayments ViewName = "payments"
	ViewUsers    ViewName = "users"
)

// QueryKind is the backend query a view resolves to.
type QueryKind string

const (
	QueryStudentsAll         QueryKind = "students.all"
	QueryStudentsByLevel     QueryKind = "students.level"
	QueryStudentsSearch      QueryKind = "students.search"
	QueryPaymentsAll         QueryKind = "payments.all"
	QueryPaymentsByLevel     QueryKind = "payments.level"
	QueryPaymentsStudentYear QueryKind = "payments.student_year"
	QueryUsersAll            QueryKind = "users.all"
)

// ViewRequest is the navigation state sent by the console.
type ViewRequest struct {
	View        ViewName `form:"view" json:"view"`
	Level       string   `form:"nivel_educativo" json:"nivel_educativo,omitempty"`
	SearchField string   `form:"field" json:"field,omitempty"`
	SearchValue string   `form:"value" json:"value,omitempty"`
	StudentID   string   `form:"student_id" json:"student_id,omitempty"`
	Year        string   `form:"anio_pago" json:"anio_pago,omitempty"`
}

// Affordances tells the console which actions to offer.
type Affordances struct {
	CanCreateStudent bool `json:"can_create_student"`
	CanEditStudent   bool `json:"can_edit_student"`
	CanDeleteStudent bool `json:"can_delete_student"`
	CanCreatePayment bool `json:"can_create_payment"`
	CanDeletePayment bool `json:"can_delete_payment"`
	CanPrintReceipt  bool `json:"can_print_receipt"`
	CanViewUsers     bool `json:"can_view_users"`
}

// ViewPlan is the composed decision for one view request.
type ViewPlan struct {
	View        ViewName          `json:"view"`
	Query       QueryKind         `json:"query"`
	Params      map[string]string `json:"params,omitempty"`
	Affordances Affordances       `json:"affordances"`
}

// ViewResult carries the plan and the rows it produced. Only the slice
// matching Plan.View is set; the others encode as null.
type ViewResult struct {
	Plan     ViewPlan      `json:"plan"`
	Students []Student     `json:"students"`
	Payments []PaymentView `json:"payments"`
	Users    []User        `json:"users"`
}

// SubmitOutcome is how a form submission ended.
type SubmitOutcome string

const (
	OutcomeSuccess   SubmitOutcome = "success"
	OutcomeCancelled SubmitOutcome = "cancelled"
)

// SubmitResult is returned by every create/update/delete flow.
type SubmitResult struct {
	Outcome SubmitOutcome `json:"outcome"`
	Data    interface{}   `json:"data,omitempty"`
}

// Succeeded wraps data in a success result.
func Succeeded(data interface{}) *SubmitResult {
	return &SubmitResult{Outcome: OutcomeSuccess, Data: data}
}

// Cancelled is the result of a submission that was not carried out.
func Cancelled() *SubmitResult {
	return &SubmitResult{Outcome: OutcomeCancelled}
}
