package dtos

import (
	"net/http"
	"time"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// NewErrorResponse fills the label from the status code.
func NewErrorResponse(status int, message string, fields map[string]string) ErrorResponse {
	return ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Errors:    fields,
	}
}
