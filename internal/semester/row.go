package semester

import (
	"math"

	"github.com/stemsi/sgpa-planner/internal/grade"
)

// Row is one course line of a semester sheet.
type Row struct {
	ModuleName  string      `json:"module_name"`
	ModuleCode  string      `json:"module_code"`
	Credit      float64     `json:"credit"`
	Grade       grade.Grade `json:"grade"`
	CreditPoint float64     `json:"credit_point"`
}

// Rows is the ordered course list of one semester, in display order.
type Rows []Row

// Patch carries a partial row update. A nil field is left untouched.
type Patch struct {
	ModuleName *string      `json:"module_name,omitempty"`
	ModuleCode *string      `json:"module_code,omitempty"`
	Credit     *float64     `json:"credit,omitempty"`
	Grade      *grade.Grade `json:"grade,omitempty"`
}

// touchesPoints reports whether applying p requires a credit point recompute.
func (p Patch) touchesPoints() bool {
	return p.Credit != nil || p.Grade != nil
}

// DefaultRow returns the blank row used for new lines and resets.
func DefaultRow() Row {
	return Row{}
}

// DefaultRows returns a fresh single-row sheet.
func DefaultRows() Rows {
	return Rows{DefaultRow()}
}

// Complete reports whether the row has every field needed to count towards
// the SGPA.
func (r Row) Complete() bool {
	return r.ModuleName != "" &&
		r.ModuleCode != "" &&
		r.Credit > 0 &&
		r.Grade != "" &&
		grade.Valid(r.Grade)
}

// creditPoint is credit times the grade point, 0 for unknown grades.
func creditPoint(credit float64, g grade.Grade) float64 {
	return credit * grade.PointOrZero(g)
}

// sanitizeCredit maps negative and NaN credits to 0.
func sanitizeCredit(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	return c
}

// Clone returns a copy of rows that shares no backing array with it.
func (rs Rows) Clone() Rows {
	if rs == nil {
		return nil
	}
	out := make(Rows, len(rs))
	copy(out, rs)
	return out
}

// Normalize recomputes every derived credit point and guarantees at least one
// row. It is used on rows coming from outside (storage, clients).
func (rs Rows) Normalize() Rows {
	if len(rs) == 0 {
		return DefaultRows()
	}
	out := make(Rows, len(rs))
	for i, r := range rs {
		r.Credit = sanitizeCredit(r.Credit)
		r.CreditPoint = creditPoint(r.Credit, r.Grade)
		out[i] = r
	}
	return out
}

// TotalCredits sums the credits of complete rows.
func (rs Rows) TotalCredits() float64 {
	var total float64
	for _, r := range rs {
		if r.Complete() {
			total += r.Credit
		}
	}
	return total
}
