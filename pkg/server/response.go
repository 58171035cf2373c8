package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkframe/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}

	msg := errors.UserMessage(err)
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	})
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func errMethod(method string) error {
	return errors.New(errors.ErrCodeUnsupported, "method %s not allowed", method)
}
