package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// KindOf classifies err.
//
// A wrapped *Error wins. Otherwise the package sentinels, context errors
// and net.Error are recognized. Everything else is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrBulkheadFull),
		errors.Is(err, ErrRateLimitExceeded):
		return KindUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransient
	}

	return KindUnknown
}

// IsRetryable reports whether err should trigger another attempt.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// KindFromStatus maps an upstream HTTP status code to a Kind.
// Successful and unrecognized codes map to KindUnknown.
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return KindTimeout
	case code == http.StatusBadRequest,
		code == http.StatusNotFound,
		code == http.StatusMethodNotAllowed,
		code == http.StatusUnprocessableEntity:
		return KindMalformed
	case code >= 500 && code <= 599:
		return KindTransient
	default:
		return KindUnknown
	}
}

// countsAgainstUpstream reports whether err indicates upstream ill health,
// as opposed to a caller fault or a local rejection.
func countsAgainstUpstream(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Retryable()
}
