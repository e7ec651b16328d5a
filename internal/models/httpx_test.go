package models

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteValidation(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidation(w, "validation failed", map[string]string{"name": "is required"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var p struct {
		Title  string `json:"title"`
		Status int    `json:"status"`
		Extra  struct {
			Fields map[string]string `json:"fields"`
		} `json:"extra"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Validation Failed", p.Title)
	assert.Equal(t, 400, p.Status)
	assert.Equal(t, "is required", p.Extra.Fields["name"])
}

func TestWriteInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternal(w, "req-1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"title":"Internal Server Error","status":500,
		"detail":"unexpected server error (see logs by reqid)","extra":{"reqid":"req-1"}}`, w.Body.String())
}
