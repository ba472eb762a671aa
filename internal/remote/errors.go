package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/google/go-github/v57/github"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
)

// TransientError wraps an error that is likely temporary and safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, meaning the caller should retry after a backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// isTransientStatus returns true for HTTP status codes that indicate a
// temporary server-side condition worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// classify wraps an error returned by the GitHub client with the
// matching sentinel. op describes the failed operation.
func classify(op string, resp *github.Response, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &TransientError{Err: fmt.Errorf("%s: %w: %w", op, shareerr.ErrAPIRequest, err)}
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, shareerr.ErrNotFound)
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w: %s", op, shareerr.ErrConflict, errorMessage(err))
	case status == 0 || isTransientStatus(status):
		return &TransientError{Err: fmt.Errorf("%s: %w: %w", op, shareerr.ErrAPIRequest, err)}
	default:
		return fmt.Errorf("%s: %w (status %d): %s", op, shareerr.ErrAPIRequest, status, errorMessage(err))
	}
}

func errorMessage(err error) string {
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Message != "" {
		return sanitizeResponseBody([]byte(ger.Message))
	}

	return err.Error()
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}
