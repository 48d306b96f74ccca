package grade

// Grade is a letter-grade symbol as entered on a semester sheet.
type Grade string

const (
	APlus  Grade = "A+"
	A      Grade = "A"
	AMinus Grade = "A-"
	BPlus  Grade = "B+"
	B      Grade = "B"
	BMinus Grade = "B-"
	CPlus  Grade = "C+"
	C      Grade = "C"
	CMinus Grade = "C-"
	DPlus  Grade = "D+"
	D      Grade = "D"
	EMinus Grade = "E-"
)

// order is the display order used by All.
var order = [...]Grade{APlus, A, AMinus, BPlus, B, BMinus, CPlus, C, CMinus, DPlus, D, EMinus}

// points is the grade point table. It is never written after init.
var points = map[Grade]float64{
	APlus:  4.0,
	A:      4.0,
	AMinus: 3.7,
	BPlus:  3.3,
	B:      3.0,
	BMinus: 2.7,
	CPlus:  2.3,
	C:      2.0,
	CMinus: 1.7,
	DPlus:  1.3,
	D:      1.0,
	EMinus: 0.0,
}

// Point returns the grade point for g and whether g is on the scale.
func Point(g Grade) (float64, bool) {
	p, ok := points[g]
	return p, ok
}

// PointOrZero returns the grade point for g, or 0 when g is empty or unknown.
func PointOrZero(g Grade) float64 {
	return points[g]
}

// Valid reports whether g is one of the recognized grades.
func Valid(g Grade) bool {
	_, ok := points[g]
	return ok
}

// All returns the recognized grades in display order. The slice is a fresh
// copy on every call.
func All() []Grade {
	out := make([]Grade, len(order))
	copy(out, order[:])
	return out
}

// Entry pairs a grade with its point value, for listing the scale.
type Entry struct {
	Grade Grade   `json:"grade"`
	Point float64 `json:"point"`
}

// Entries returns the whole scale in display order.
func Entries() []Entry {
	out := make([]Entry, 0, len(order))
	for _, g := range order {
		out = append(out, Entry{Grade: g, Point: points[g]})
	}
	return out
}
