package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/sgpa-planner/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBind_ValidRow(t *testing.T) {
	var req model.ComputeSGPARequest
	fields := bindBody(t, `{"rows":[{"module_name":"OS","module_code":"CS3","credit":3,"grade":"B+"},{"grade":""}]}`, &req)
	assert.Nil(t, fields)
	require.Len(t, req.Rows, 2)
}

func TestBind_UnknownGrade(t *testing.T) {
	var req model.ComputeSGPARequest
	fields := bindBody(t, `{"rows":[{"module_name":"OS","credit":3,"grade":"F"}]}`, &req)
	require.NotNil(t, fields)
	msg, ok := fields["grade"]
	require.True(t, ok, "fields: %v", fields)
	assert.Contains(t, msg, "A+")
}

func TestBind_NegativeCredit(t *testing.T) {
	var req model.ComputeSGPARequest
	fields := bindBody(t, `{"rows":[{"credit":-1}]}`, &req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "credit")
}

func TestBind_PartialUpdate(t *testing.T) {
	var req model.UpdateRowRequest
	fields := bindBody(t, `{"grade":"A-"}`, &req)
	assert.Nil(t, fields)
	require.NotNil(t, req.Grade)
	assert.Nil(t, req.Credit)

	fields = bindBody(t, `{"grade":"Z"}`, &model.UpdateRowRequest{})
	assert.Contains(t, fields, "grade")
}

func TestBind_MalformedJSON(t *testing.T) {
	fields := bindBody(t, `{"rows":`, &model.ComputeSGPARequest{})
	assert.Contains(t, fields, "detail")
}
