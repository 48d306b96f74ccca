// Package semester holds the SGPA calculator for a single semester sheet.
//
// All transforms are pure: they take the current rows and return a freshly
// allocated slice, leaving the input untouched, so owners can detect changes by
// identity. Invalid input never produces an error; it degrades to a no-op or a
// zero contribution.
package semester

import "github.com/stemsi/sgpa-planner/internal/grade"

// UpdateRow merges p into the row at index. When credit or grade is part of the
// patch the row's credit point is recomputed. An out-of-range index is a no-op
// and returns rows unchanged with false.
func UpdateRow(rows Rows, index int, p Patch) (Rows, bool) {
	if index < 0 || index >= len(rows) {
		return rows, false
	}

	out := rows.Clone()
	row := out[index]

	if p.ModuleName != nil {
		row.ModuleName = *p.ModuleName
	}
	if p.ModuleCode != nil {
		row.ModuleCode = *p.ModuleCode
	}
	if p.Credit != nil {
		row.Credit = sanitizeCredit(*p.Credit)
	}
	if p.Grade != nil {
		row.Grade = *p.Grade
	}
	if p.touchesPoints() {
		row.CreditPoint = creditPoint(row.Credit, row.Grade)
	}

	out[index] = row
	return out, true
}

// RemoveRow drops the row at index. The sheet always keeps at least one row, so
// removing from a sheet of length one (or an out-of-range index) is a no-op.
func RemoveRow(rows Rows, index int) (Rows, bool) {
	if len(rows) <= 1 || index < 0 || index >= len(rows) {
		return rows, false
	}

	out := make(Rows, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	return out, true
}

// AddRow appends a blank row.
func AddRow(rows Rows) Rows {
	out := make(Rows, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, DefaultRow())
}

// ComputeSGPA returns the credit-weighted grade point average over the complete
// rows, or 0 when there are none. The value is not rounded.
func ComputeSGPA(rows Rows) float64 {
	var weighted, credits float64
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		weighted += r.Credit * grade.PointOrZero(r.Grade)
		credits += r.Credit
	}
	if credits <= 0 {
		return 0
	}
	return weighted / credits
}

// ComputeCGPA is the cumulative average over every complete row of every
// semester, weighted by credit.
func ComputeCGPA(semesters []Rows) float64 {
	var all Rows
	for _, rs := range semesters {
		all = append(all, rs...)
	}
	return ComputeSGPA(all)
}

// Calculator is the interactive semester sheet. It never owns the rows: every
// edit derives a new slice and hands it to the owner through onChange, and a
// reset request is forwarded to onReset untouched.
type Calculator struct {
	number   int
	rows     Rows
	onChange func(Rows)
	onReset  func()
}

// NewCalculator binds a calculator to the owner's current rows and callbacks.
// Either callback may be nil.
func NewCalculator(number int, rows Rows, onChange func(Rows), onReset func()) *Calculator {
	return &Calculator{
		number:   number,
		rows:     rows,
		onChange: onChange,
		onReset:  onReset,
	}
}

// Number is the semester number shown on the sheet.
func (c *Calculator) Number() int { return c.number }

// Rows returns the rows the calculator currently reflects.
func (c *Calculator) Rows() Rows { return c.rows }

// SGPA is ComputeSGPA over the current rows.
func (c *Calculator) SGPA() float64 { return ComputeSGPA(c.rows) }

// UpdateRow edits one row and notifies the owner.
func (c *Calculator) UpdateRow(index int, p Patch) {
	if next, ok := UpdateRow(c.rows, index, p); ok {
		c.commit(next)
	}
}

// RemoveRow removes one row and notifies the owner. The last row is kept.
func (c *Calculator) RemoveRow(index int) {
	if next, ok := RemoveRow(c.rows, index); ok {
		c.commit(next)
	}
}

// AddRow appends a blank row and notifies the owner.
func (c *Calculator) AddRow() {
	c.commit(AddRow(c.rows))
}

// Reset forwards the owner's reset signal.
func (c *Calculator) Reset() {
	if c.onReset != nil {
		c.onReset()
	}
}

// Dispatch runs cmd against the calculator through the same callbacks as the
// direct methods.
func (c *Calculator) Dispatch(cmd Command) {
	switch cmd := cmd.(type) {
	case AddRowCommand:
		c.AddRow()
	case UpdateRowCommand:
		c.UpdateRow(cmd.Index, cmd.Patch)
	case RemoveRowCommand:
		c.RemoveRow(cmd.Index)
	case ResetCommand:
		c.Reset()
	}
}

func (c *Calculator) commit(next Rows) {
	c.rows = next
	if c.onChange != nil {
		c.onChange(next)
	}
}
