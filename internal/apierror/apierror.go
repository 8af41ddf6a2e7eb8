// Package apierror holds the error body returned by all json endpoints
package apierror

// Error codes
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeServerError    = "server_error"
)

// Error is the json error response
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// New creates an Error
func New(code, description string) Error {
	return Error{
		Error:            code,
		ErrorDescription: description,
	}
}

// InvalidRequest creates an invalid_request Error
func InvalidRequest(description string) Error {
	return New(CodeInvalidRequest, description)
}

// Unauthorized creates an unauthorized Error
func Unauthorized(description string) Error {
	return New(CodeUnauthorized, description)
}

// Forbidden creates a forbidden Error
func Forbidden(description string) Error {
	return New(CodeForbidden, description)
}

// NotFound creates a not_found Error
func NotFound(description string) Error {
	return New(CodeNotFound, description)
}

// ServerError creates a server_error Error
func ServerError(description string) Error {
	return New(CodeServerError, description)
}
