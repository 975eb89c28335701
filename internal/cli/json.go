package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeAPITimeout      = "API_TIMEOUT"
	ErrCodeAPIAuthFailed   = "API_AUTH_FAILED"
	ErrCodeAPIUnreachable  = "API_UNREACHABLE"
	ErrCodeAPIRejected     = "API_REJECTED"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeVMNotFound      = "VM_NOT_FOUND"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var vmErr *errors.Error
	if !stderrors.As(err, &vmErr) {
		return &JSONError{
			Code:    ErrCodeUnknown,
			Message: err.Error(),
		}
	}

	out := &JSONError{
		Code:       mapErrorCode(vmErr.Code, vmErr.Message),
		Message:    vmErr.Message,
		Suggestion: vmErr.Suggestion,
	}
	if status := vmrest.StatusCode(err); status != 0 {
		out.Details = map[string]interface{}{"status": status}
	}
	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		// Distinguish between not found and invalid
		if strings.Contains(strings.ToLower(message), "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrTimeout:
		return ErrCodeAPITimeout
	case errors.ErrAuth:
		return ErrCodeAPIAuthFailed
	case errors.ErrNetwork:
		return ErrCodeAPIUnreachable
	case errors.ErrRejected:
		return ErrCodeAPIRejected
	case errors.ErrInvalidResponse:
		return ErrCodeInvalidResponse
	case errors.ErrNotFound:
		return ErrCodeVMNotFound
	}
	return ErrCodeUnknown
}
