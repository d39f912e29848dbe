package models

import (
	"strings"

	"github.com/ivc-chiapas/folios-console/pkg/money"
)

// EducationLevels is the recognised set of levels, used when the backend
// cannot provide its own list.
var EducationLevels = []string{
	"Preescolar",
	"Primaria",
	"Secundaria",
	"Preparatoria",
	"Universidad",
	"Examen",
	"Curso belleza",
	"Constancia",
}

// IsEducationLevel reports whether level belongs to EducationLevels, ignoring case.
func IsEducationLevel(level string) bool {
	level = strings.TrimSpace(level)
	for _, known := range EducationLevels {
		if strings.EqualFold(known, level) {
			return true
		}
	}
	return false
}

// Student mirrors the backend student record.
type Student struct {
	ID              FlexString  `json:"id"`
	GivenName       string      `json:"nombre"`
	PaternalSurname string      `json:"apellido_paterno"`
	MaternalSurname string      `json:"apellido_materno"`
	BirthDate       string      `json:"fecha_nacimiento"`
	EducationLevel  string      `json:"nivel_educativo"`
	Phone           string      `json:"telefono"`
	Email           string      `json:"email"`
	Tutor           string      `json:"tutor"`
	TutorPhone      string      `json:"numero_telefonico_tutor"`
	DueDay          FlexString  `json:"dia_pago"`
	MonthlyAmount   money.Value `json:"monto_mensual"`
	RegisteredOn    string      `json:"fecha_registro,omitempty"`
	RegisteredAt    string      `json:"hora_registro,omitempty"`
}

// FullName joins the given name and both surnames.
func (s Student) FullName() string {
	return joinName(s.GivenName, s.PaternalSurname, s.MaternalSurname)
}

func joinName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// StudentSearchFields lists the fields the backend can search students by.
var StudentSearchFields = []string{
	"nombre",
	"apellido_paterno",
	"apellido_materno",
	"nivel_educativo",
	"email",
	"tutor",
	"telefono",
	"numero_telefonico_tutor",
}

// IsStudentSearchField reports whether field is searchable.
func IsStudentSearchField(field string) bool {
	for _, f := range StudentSearchFields {
		if f == field {
			return true
		}
	}
	return false
}

// StudentInput is the payload sent to the backend on create and update.
// Registration date and time are only ever sent on create.
type StudentInput struct {
	GivenName       string      `json:"nombre"`
	PaternalSurname string      `json:"apellido_paterno"`
	MaternalSurname string      `json:"apellido_materno"`
	BirthDate       string      `json:"fecha_nacimiento"`
	EducationLevel  string      `json:"nivel_educativo"`
	Phone           string      `json:"telefono"`
	Email           string      `json:"email"`
	Tutor           string      `json:"tutor"`
	TutorPhone      string      `json:"numero_telefonico_tutor"`
	DueDay          int         `json:"dia_pago"`
	MonthlyAmount   money.Value `json:"monto_mensual"`
	RegisteredOn    string      `json:"fecha_registro,omitempty"`
	RegisteredAt    string      `json:"hora_registro,omitempty"`
}
