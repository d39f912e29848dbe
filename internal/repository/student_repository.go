package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

// StudentRepository reads and writes students through the backend API.
type StudentRepository struct {
	client *upstream.Client
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(client *upstream.Client) *StudentRepository {
	return &StudentRepository{client: client}
}

// List returns every student.
func (r *StudentRepository) List(ctx context.Context, credential string) ([]models.Student, error) {
	return r.list(ctx, "students.list", credential, "students/all", nil)
}

// ListByLevel returns students of one education level.
func (r *StudentRepository) ListByLevel(ctx context.Context, credential, level string) ([]models.Student, error) {
	return r.list(ctx, "students.by_level", credential, "students/search", url.Values{"nivel_educativo": {level}})
}

// Search delegates matching of field=value to the backend.
func (r *StudentRepository) Search(ctx context.Context, credential, field, value string) ([]models.Student, error) {
	return r.list(ctx, "students.search", credential, "students/search", url.Values{field: {value}})
}

func (r *StudentRepository) list(ctx context.Context, op, credential, path string, query url.Values) ([]models.Student, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, op, credential, path, query, &raw); err != nil {
		return nil, err
	}
	var students []models.Student
	if err := decodeList(raw, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Levels returns the education levels the backend knows about. Entries may
// be plain strings or objects carrying nivel_educativo.
func (r *StudentRepository) Levels(ctx context.Context, credential string) ([]string, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, "students.levels", credential, "students/niveles", nil, &raw); err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := decodeList(raw, &entries); err != nil {
		return nil, err
	}

	levels := make([]string, 0, len(entries))
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			levels = append(levels, name)
			continue
		}
		var obj struct {
			Level string `json:"nivel_educativo"`
		}
		if err := json.Unmarshal(entry, &obj); err == nil && obj.Level != "" {
			levels = append(levels, obj.Level)
		}
	}
	return levels, nil
}

// Create registers a student.
func (r *StudentRepository) Create(ctx context.Context, credential string, input models.StudentInput) (*models.Student, error) {
	var raw json.RawMessage
	if err := r.client.Send(ctx, "students.create", http.MethodPost, credential, "students/create", input, &raw); err != nil {
		return nil, err
	}
	student := studentFromInput("", input)
	if err := decodeOne(raw, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Update replaces the editable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, credential, id string, input models.StudentInput) (*models.Student, error) {
	var raw json.RawMessage
	if err := r.client.Send(ctx, "students.update", http.MethodPut, credential, "students/update/"+url.PathEscape(id), input, &raw); err != nil {
		return nil, err
	}
	student := studentFromInput(id, input)
	if err := decodeOne(raw, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, credential, id string) error {
	return r.client.Send(ctx, "students.delete", http.MethodDelete, credential, "students/delete/"+url.PathEscape(id), nil, nil)
}

func studentFromInput(id string, in models.StudentInput) models.Student {
	due := ""
	if in.DueDay > 0 {
		due = strconv.Itoa(in.DueDay)
	}
	return models.Student{
		ID:              models.FlexString(id),
		GivenName:       in.GivenName,
		PaternalSurname: in.PaternalSurname,
		MaternalSurname: in.MaternalSurname,
		BirthDate:       in.BirthDate,
		EducationLevel:  in.EducationLevel,
		Phone:           in.Phone,
		Email:           in.Email,
		Tutor:           in.Tutor,
		TutorPhone:      in.TutorPhone,
		DueDay:          models.FlexString(due),
		MonthlyAmount:   in.MonthlyAmount,
		RegisteredOn:    in.RegisteredOn,
		RegisteredAt:    in.RegisteredAt,
	}
}
