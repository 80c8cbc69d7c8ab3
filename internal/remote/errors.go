package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any 401 response via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the catalog service.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the server-provided message, or a generic one.
	Message string
	// Fields holds the structured validation errors, if any.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized reports whether err stems from a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// errorBody covers both the validation-problem shape
// ({"errors": {"Field": ["msg"]}}) and the plain {"Message": "..."} shape.
// encoding/json matches keys case-insensitively, so "message" works too.
type errorBody struct {
	Errors  json.RawMessage `json:"errors"`
	Message string          `json:"Message"`
	Title   string          `json:"title"`
}

// newAPIError builds an APIError from a response body. The message is the
// first field-level message in document order, else the top-level message,
// else a generic text naming the status.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var eb errorBody
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &eb) == nil {
		if len(eb.Errors) > 0 {
			apiErr.Fields = map[string][]string{}
			_ = json.Unmarshal(eb.Errors, &apiErr.Fields)
			apiErr.Message = firstFieldMessage(eb.Errors)
		}
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = eb.Title
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return apiErr
}

// firstFieldMessage walks the errors object token by token, since map
// decoding would lose the server's field order.
func firstFieldMessage(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return ""
		}
		var msgs []string
		if err := dec.Decode(&msgs); err != nil {
			return ""
		}
		if len(msgs) > 0 && msgs[0] != "" {
			return msgs[0]
		}
	}
	return ""
}
