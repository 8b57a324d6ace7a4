package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MapHTTPError maps GitHub API HTTP status codes to typed errors so the
// retry logic can classify them.
func MapHTTPError(statusCode int, body []byte) *Error {
	message := parseErrorMessage(statusCode, body)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{
			Type:       ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusTooManyRequests:
		return &Error{
			Type:       ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}

	case http.StatusNotFound:
		return &Error{
			Type:       ErrTypeNotFound,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusUnprocessableEntity:
		return &Error{
			Type:       ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &Error{
			Type:       ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}

	default:
		return &Error{
			Type:       ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
		}
	}
}

// parseErrorMessage extracts a user-friendly error message from GitHub's
// response body.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// Include a body preview for debugging non-JSON responses.
		bodyPreview := string(body)
		if len(bodyPreview) > 100 {
			bodyPreview = bodyPreview[:100] + "..."
		}
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	if errResp.Message == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Field != "" {
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}
