package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeForbidden   ErrorType = "forbidden"
	ErrorTypeDuplicate   ErrorType = "duplicate"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information.
// Code is the HTTP status, APICode the first code of the "errors" array.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	APICode int

	// Reset is when the rate-limit window reopens, if the server said so.
	Reset time.Time
}

func (e *Error) Error() string {
	if e.APICode != 0 {
		return fmt.Sprintf("%s error (code %d, api code %d): %s", e.Type, e.Code, e.APICode, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error.
func New(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// TypeOf returns the ErrorType of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries an *Error of type t.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}

// apiErrorBody is the v1.1 error envelope: {"errors":[{"code":88,"message":"..."}]}
type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ClassifyAPIError builds a typed error from a non-2xx response. Known API
// error codes take precedence over the HTTP status.
func ClassifyAPIError(statusCode int, body []byte, header http.Header) *Error {
	e := &Error{Code: statusCode, Type: typeForStatus(statusCode)}

	var envelope apiErrorBody
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		e.APICode = first.Code
		e.Message = first.Message
		if t, ok := typeForAPICode(first.Code); ok {
			e.Type = t
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(statusCode)
	}

	if e.Type == ErrorTypeRateLimit && header != nil {
		e.Reset = ParseRateLimitReset(header.Get("X-Rate-Limit-Reset"))
	}
	return e
}

func typeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized:
		return ErrorTypeAuth
	case statusCode == http.StatusForbidden:
		return ErrorTypeForbidden
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

func typeForAPICode(code int) (ErrorType, bool) {
	switch code {
	case 88:
		return ErrorTypeRateLimit, true
	case 32, 89, 135, 215:
		return ErrorTypeAuth, true
	case 64, 161, 179, 185, 226, 326:
		return ErrorTypeForbidden, true
	case 139, 187, 327:
		return ErrorTypeDuplicate, true
	case 34, 144:
		return ErrorTypeNotFound, true
	case 130, 131:
		return ErrorTypeServerError, true
	}
	return "", false
}

// ParseRateLimitReset parses the X-Rate-Limit-Reset unix timestamp header.
// It returns the zero time when the value is missing or invalid.
func ParseRateLimitReset(v string) time.Time {
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
