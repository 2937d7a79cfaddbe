package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeJSON(w, status, apiError{
		Code:    code,
		Message: message,
		Meta:    map[string]string{"request_id": ensureRequestID(w, r)},
	})
}

func writeValidationErrors(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, apiError{
		Code:    "PLANNING_VALIDATION_FAILED",
		Message: "validation failed",
		Fields:  fields,
		Meta:    map[string]string{"request_id": ensureRequestID(w, r)},
	})
}
