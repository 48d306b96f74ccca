package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint(t *testing.T) {
	tests := []struct {
		grade Grade
		want  float64
	}{
		{APlus, 4.0},
		{A, 4.0},
		{AMinus, 3.7},
		{BPlus, 3.3},
		{B, 3.0},
		{BMinus, 2.7},
		{CPlus, 2.3},
		{C, 2.0},
		{CMinus, 1.7},
		{DPlus, 1.3},
		{D, 1.0},
		{EMinus, 0.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.grade), func(t *testing.T) {
			got, ok := Point(tt.grade)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPoint_Unknown(t *testing.T) {
	for _, g := range []Grade{"", "F", "E", "a", "A++", " A"} {
		p, ok := Point(g)
		assert.False(t, ok, "grade %q", g)
		assert.Zero(t, p)
		assert.Zero(t, PointOrZero(g))
		assert.False(t, Valid(g))
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	assert.Len(t, all, 12)
	assert.Equal(t, APlus, all[0])
	assert.Equal(t, EMinus, all[len(all)-1])

	all[0] = "Z"
	assert.Equal(t, APlus, All()[0])
}

func TestEntries_MatchPoints(t *testing.T) {
	entries := Entries()
	assert.Len(t, entries, len(All()))
	for _, e := range entries {
		p, ok := Point(e.Grade)
		assert.True(t, ok)
		assert.Equal(t, p, e.Point)
	}
}
