package models

import (
	"encoding/json"
	"net/http"
)

// Problem: ответ об ошибке (RFC 7807).
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Extra  any    `json:"extra,omitempty"` // fields / reqid / failed
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, extra any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Extra:  extra,
	})
}

// WriteValidation: 400 с картой поле → сообщение в extra.fields.
func WriteValidation(w http.ResponseWriter, detail string, fields map[string]string) {
	WriteProblem(w, http.StatusBadRequest, "Validation Failed", detail, map[string]any{"fields": fields})
}

// WriteInternal: 500 без подробностей; искать в логах по reqid.
func WriteInternal(w http.ResponseWriter, reqid string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error",
		"unexpected server error (see logs by reqid)", map[string]any{"reqid": reqid})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
