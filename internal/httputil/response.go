package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error type codes carried in the "type" field of error responses.
const (
	TypeMissingFields   = "missing-fields"
	TypeInvalidFields   = "invalid-fields"
	TypeUnknownUsername = "unknown-username"
	TypeNameInUse       = "name-in-use"
	TypeEmailInUse      = "email-in-use"
	TypeForbidden       = "forbidden"
	TypeNotFound        = "not-found"
	TypeUnauthorized    = "unauthorized"
	TypeTokenExpired    = "token-expired"
	TypeInternal        = "internal-error"
)

// FieldError names one offending field with a human-readable message.
type FieldError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error body:
// {"status":"error","type":"<code>","errors":[{"name","message"},...]}
type ErrorResponse struct {
	Status string       `json:"status"`
	Type   string       `json:"type"`
	Errors []FieldError `json:"errors"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, we can't do much - headers already sent
			return
		}
	}
}

// WriteError writes an error response with the given type code and field errors.
func WriteError(w http.ResponseWriter, status int, typeCode string, errs []FieldError) {
	WriteJSON(w, status, ErrorResponse{
		Status: "error",
		Type:   typeCode,
		Errors: errs,
	})
}

// WriteMissingFields reports required fields that were absent. The friend
// group create path surfaces this as 403 rather than 400; everything else
// uses 400, so the status is a parameter.
func WriteMissingFields(w http.ResponseWriter, status int, fields ...string) {
	errs := make([]FieldError, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, FieldError{
			Name:    field,
			Message: fmt.Sprintf("Missing value for '%s'", field),
		})
	}
	WriteError(w, status, TypeMissingFields, errs)
}

// WriteInvalidFields reports malformed or referentially invalid fields.
func WriteInvalidFields(w http.ResponseWriter, status int, fields ...string) {
	errs := make([]FieldError, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, FieldError{
			Name:    field,
			Message: fmt.Sprintf("Invalid value for '%s'", field),
		})
	}
	WriteError(w, status, TypeInvalidFields, errs)
}

// WriteUnknownUsername writes a 404 for a username that does not resolve.
func WriteUnknownUsername(w http.ResponseWriter, name string) {
	WriteError(w, http.StatusNotFound, TypeUnknownUsername, []FieldError{{
		Name:    "username",
		Message: fmt.Sprintf("There is no user named '%s'", name),
	}})
}

// WriteNameInUse writes a 403 for a duplicate friend group name.
func WriteNameInUse(w http.ResponseWriter, name string) {
	WriteError(w, http.StatusForbidden, TypeNameInUse, []FieldError{{
		Name:    "name",
		Message: fmt.Sprintf("There is already a group named '%s'", name),
	}})
}

// WriteEmailInUse writes a 400 for a duplicate registration email.
func WriteEmailInUse(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, TypeEmailInUse, []FieldError{{
		Name:    "email",
		Message: "There is already an account with that email address",
	}})
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, TypeForbidden, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, TypeNotFound, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, TypeUnauthorized, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}

// WriteUnauthorizedWithType writes a 401 with a specific type code
// (token-expired vs plain unauthorized).
func WriteUnauthorizedWithType(w http.ResponseWriter, typeCode string, message string) {
	WriteError(w, http.StatusUnauthorized, typeCode, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}

// WriteBadRequest writes a 400 with the invalid-fields type for malformed
// request bodies.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, TypeInvalidFields, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, TypeInternal, []FieldError{{
		Name:    "detail",
		Message: message,
	}})
}
