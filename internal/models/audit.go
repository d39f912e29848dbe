package models

import "time"

// Audit actions recorded by the console.
const (
	AuditActionLogin         = "LOGIN"
	AuditActionLogout        = "LOGOUT"
	AuditActionStudentCreate = "STUDENT_CREATE"
	AuditActionStudentUpdate = "STUDENT_UPDATE"
	AuditActionStudentDelete = "STUDENT_DELETE"
	AuditActionPaymentCreate = "PAYMENT_CREATE"
	AuditActionPaymentDelete = "PAYMENT_DELETE"
	AuditActionReceiptRender = "RECEIPT_RENDER"
	AuditActionReceiptSave   = "RECEIPT_SAVE"
	AuditActionPaymentExport = "PAYMENT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      *string   `db:"actor" json:"actor,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows the audit listing.
type AuditFilter struct {
	Actor  string
	Action string
	Limit  int
}
