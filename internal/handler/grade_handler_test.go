package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/sgpa-planner/internal/grade"
)

func gradeRouter() *gin.Engine {
	h := NewGradeHandler()
	r := gin.New()
	r.GET("/grades", h.ListGrades)
	r.POST("/sgpa", h.ComputeSGPA)
	return r
}

func TestListGrades(t *testing.T) {
	w, env := doJSON(t, gradeRouter(), http.MethodGet, "/grades", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Grades []grade.Entry `json:"grades"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Grades, 12)
	assert.Equal(t, grade.APlus, data.Grades[0].Grade)
	assert.Equal(t, 4.0, data.Grades[0].Point)
}

func TestComputeSGPA(t *testing.T) {
	body := `{"rows":[
		{"module_name":"Calculus","module_code":"MA101","credit":3,"grade":"A"},
		{"module_name":"Physics","module_code":"PH101","credit":4,"grade":"B+"},
		{"module_name":"Draft","module_code":"","credit":2,"grade":"C"}
	]}`

	w, env := doJSON(t, gradeRouter(), http.MethodPost, "/sgpa", body)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		SGPA         float64 `json:"sgpa"`
		TotalCredits float64 `json:"total_credits"`
		Rows         []struct {
			CreditPoint float64 `json:"credit_point"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.InDelta(t, 25.2/7, data.SGPA, 1e-9)
	assert.Equal(t, 7.0, data.TotalCredits)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, 12.0, data.Rows[0].CreditPoint)
	assert.InDelta(t, 13.2, data.Rows[1].CreditPoint, 1e-9)
	assert.Equal(t, 4.0, data.Rows[2].CreditPoint, "incomplete rows still carry a credit point")
}

func TestComputeSGPA_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no rows", `{"rows":[]}`},
		{"unknown grade", `{"rows":[{"module_name":"X","module_code":"X1","credit":3,"grade":"F"}]}`},
		{"negative credit", `{"rows":[{"module_name":"X","module_code":"X1","credit":-1,"grade":"A"}]}`},
		{"malformed", `{"rows":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doJSON(t, gradeRouter(), http.MethodPost, "/sgpa", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}
