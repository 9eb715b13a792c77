// Package errors provides custom error types for the copilot backend client.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Sentinel errors for common cases
var (
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrRequestPending  = errors.New("a request is already in progress")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrUnknownMode     = errors.New("unknown chat mode")
)

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4096

// APIError represents a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	// Detail is the server-supplied human readable reason, if any.
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, msg)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, msg)
}

// Is allows comparison with other APIErrors
func (e *APIError) Is(target error) bool {
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates an APIError and extracts the detail field from body.
// Only the stored Body is truncated; the detail comes from the full body.
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	detail := ExtractDetail(body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Detail:     detail,
		Body:       body,
	}
}

// NetworkError represents a transport failure (connection refused, DNS, timeout)
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// ParseError represents a response decoding error
type ParseError struct {
	Message  string
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at %s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Endpoint, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// NewParseError creates a new ParseError
func NewParseError(endpoint, message string, err error) *ParseError {
	return &ParseError{Message: message, Endpoint: endpoint, Err: err}
}

// ExtractDetail pulls the "detail" field out of a JSON error body.
// A string detail is returned verbatim; a validation list has its "msg"
// entries joined with "; ". Anything else yields "".
func ExtractDetail(body string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}
	detail := gjson.Get(body, "detail")
	switch {
	case !detail.Exists():
		return ""
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		var msgs []string
		detail.ForEach(func(_, item gjson.Result) bool {
			if m := item.Get("msg"); m.Exists() {
				msgs = append(msgs, m.String())
			} else if item.Type == gjson.String {
				msgs = append(msgs, item.String())
			}
			return true
		})
		return strings.Join(msgs, "; ")
	case detail.IsObject():
		if m := detail.Get("message"); m.Exists() {
			return m.String()
		}
		return detail.Raw
	default:
		return detail.String()
	}
}

// Detail returns the server-supplied detail carried by err, or "".
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// DisplayMessage returns the text shown to the user for err: the server
// detail when present, otherwise fallback.
func DisplayMessage(err error, fallback string) string {
	if d := Detail(err); d != "" {
		return d
	}
	return fallback
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAPIError reports whether err is a backend-reported failure
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsParseError reports whether err is a decoding failure
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// IsRateLimitError reports whether the backend answered 429
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == 429
}

// GetHTTPStatus returns the HTTP status code of an APIError, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
