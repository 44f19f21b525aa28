package httpx

import (
	"encoding/json"
	"net/http"
)

// Stable error codes of the JSON API.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeNotReady     = "NOT_READY"
	CodeModelInput   = "MODEL_INPUT_MISMATCH"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorBody is the error envelope: {"error":{"code","message","details"}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, statusCode int, code, message string, details any) {
	WriteJSON(w, statusCode, ErrorBody{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}
