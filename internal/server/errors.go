package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	}
	switch apperrors.ClassOf(err) {
	case apperrors.ClassInvalid:
		return http.StatusBadRequest
	case apperrors.ClassNotFound:
		return http.StatusNotFound
	case apperrors.ClassRouting:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := ErrorResponse{
		Code:      apperrors.GetCode(err),
		Message:   apperrors.UserMessage(err),
		RequestID: RequestID(r.Context()),
	}
	if resp.Code == "" {
		resp.Code = apperrors.ErrCodeInternal
		if status == http.StatusRequestEntityTooLarge {
			resp.Code = apperrors.ErrCodeInvalidInput
		}
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errNotFound(path string) error {
	return apperrors.New(apperrors.ErrCodeNotFound, "no route for %s", path)
}

func errMethodNotAllowed(method string) error {
	return apperrors.New(apperrors.ErrCodeUnsupported, "method %s not allowed", method)
}
