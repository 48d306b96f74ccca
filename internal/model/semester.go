package model

import (
	"time"

	"github.com/stemsi/sgpa-planner/internal/grade"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// SemesterView is a semester sheet as returned to clients.
type SemesterView struct {
	Number       int           `json:"number"`
	Rows         semester.Rows `json:"rows"`
	SGPA         float64       `json:"sgpa"`
	TotalCredits float64       `json:"total_credits"`
	Changed      bool          `json:"changed"`
}

// SemesterSummary is the stored per-semester aggregate.
type SemesterSummary struct {
	Number       int     `json:"number"`
	SGPA         float64 `json:"sgpa"`
	TotalCredits float64 `json:"total_credits"`
	RowCount     int     `json:"row_count"`
}

// PlannerOverview lists every semester of a student with the cumulative GPA.
type PlannerOverview struct {
	Semesters    []SemesterSummary `json:"semesters"`
	CGPA         float64           `json:"cgpa"`
	TotalCredits float64           `json:"total_credits"`
}

// RowPayload is a client-supplied course row. CreditPoint is never accepted
// from clients; it is derived.
type RowPayload struct {
	ModuleName string      `json:"module_name" binding:"max=200"`
	ModuleCode string      `json:"module_code" binding:"max=50"`
	Credit     float64     `json:"credit" binding:"gte=0,lte=100"`
	Grade      grade.Grade `json:"grade" binding:"grade"`
}

// UpdateRowRequest is the partial update for one row. Absent fields are left
// untouched.
type UpdateRowRequest struct {
	ModuleName *string      `json:"module_name" binding:"omitempty,max=200"`
	ModuleCode *string      `json:"module_code" binding:"omitempty,max=50"`
	Credit     *float64     `json:"credit" binding:"omitempty,gte=0,lte=100"`
	Grade      *grade.Grade `json:"grade" binding:"omitempty,grade"`
}

// Patch converts the request into a calculator patch.
func (r UpdateRowRequest) Patch() semester.Patch {
	return semester.Patch{
		ModuleName: r.ModuleName,
		ModuleCode: r.ModuleCode,
		Credit:     r.Credit,
		Grade:      r.Grade,
	}
}

// ComputeSGPARequest is the stateless SGPA payload.
type ComputeSGPARequest struct {
	Rows []RowPayload `json:"rows" binding:"required,min=1,max=200,dive"`
}

// ToRows converts payload rows into calculator rows with derived credit points.
func ToRows(in []RowPayload) semester.Rows {
	rows := make(semester.Rows, len(in))
	for i, p := range in {
		rows[i] = semester.Row{
			ModuleName: p.ModuleName,
			ModuleCode: p.ModuleCode,
			Credit:     p.Credit,
			Grade:      p.Grade,
		}
	}
	return rows.Normalize()
}

// NewSemesterView builds the client view of a sheet.
func NewSemesterView(number int, rows semester.Rows, changed bool) SemesterView {
	return SemesterView{
		Number:       number,
		Rows:         rows,
		SGPA:         semester.ComputeSGPA(rows),
		TotalCredits: rows.TotalCredits(),
		Changed:      changed,
	}
}

// SemesterPersistJob is queued for the persist worker after every change.
// UpdatedAt is the time of the change; an older snapshot never overwrites a
// newer one in PostgreSQL.
type SemesterPersistJob struct {
	StudentID int           `json:"student_id"`
	Number    int           `json:"number"`
	Rows      semester.Rows `json:"rows"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PlannerEvent is published to a student's planner channel when a semester
// changes. Origin identifies the connection that caused it, if any.
type PlannerEvent struct {
	Origin string       `json:"origin,omitempty"`
	View   SemesterView `json:"view"`
}
