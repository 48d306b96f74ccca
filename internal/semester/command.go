package semester

// Command is a single user edit of a semester sheet.
type Command interface {
	apply(Rows) (Rows, bool)
}

// AddRowCommand appends a blank row.
type AddRowCommand struct{}

// UpdateRowCommand merges Patch into the row at Index.
type UpdateRowCommand struct {
	Index int
	Patch Patch
}

// RemoveRowCommand removes the row at Index.
type RemoveRowCommand struct {
	Index int
}

// ResetCommand replaces the sheet with a single blank row.
type ResetCommand struct{}

func (AddRowCommand) apply(rs Rows) (Rows, bool) { return AddRow(rs), true }

func (c UpdateRowCommand) apply(rs Rows) (Rows, bool) { return UpdateRow(rs, c.Index, c.Patch) }

func (c RemoveRowCommand) apply(rs Rows) (Rows, bool) { return RemoveRow(rs, c.Index) }

func (ResetCommand) apply(Rows) (Rows, bool) { return DefaultRows(), true }

// Apply is the reducer form of the calculator: it returns the state after cmd
// and whether cmd produced a new state. A nil command is a no-op.
func Apply(rows Rows, cmd Command) (Rows, bool) {
	if cmd == nil {
		return rows, false
	}
	return cmd.apply(rows)
}
