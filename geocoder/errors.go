// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jcodagnone/geocontrol/transport"
)

// GeocodingError represents a failed geocoding request.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit the provider throttled the request.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout the response did not arrive in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound the endpoint does not exist.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the provider rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError the provider could not be reached.
	ErrorTypeNetworkError
	// ErrorTypeMalformedResponse the payload could not be understood.
	ErrorTypeMalformedResponse
	// ErrorTypeCanceled the request was abandoned by the caller.
	ErrorTypeCanceled
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:           "unknown",
	ErrorTypeRateLimit:         "rate_limit",
	ErrorTypeQuotaExceeded:     "quota_exceeded",
	ErrorTypeTimeout:           "timeout",
	ErrorTypeNotFound:          "not_found",
	ErrorTypeInvalidRequest:    "invalid_request",
	ErrorTypeNetworkError:      "network_error",
	ErrorTypeMalformedResponse: "malformed_response",
	ErrorTypeCanceled:          "canceled",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func isType(err error, t ErrorType) (bool, bool) {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == t, true
	}

	return false, false
}

// IsRateLimitError reports whether err was caused by provider throttling.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := isType(err, ErrorTypeRateLimit); typed {
		return is
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err was caused by an exhausted quota.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := isType(err, ErrorTypeQuotaExceeded); typed {
		return is
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "access denied")
}

// IsTimeoutError reports whether err was caused by a missing response.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := isType(err, ErrorTypeTimeout); typed {
		return is
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, transport.ErrTimeout) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsCanceledError reports whether the request was abandoned by the caller.
func IsCanceledError(err error) bool {
	if is, typed := isType(err, ErrorTypeCanceled); typed {
		return is
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, transport.ErrCanceled)
}

// ClassifyHTTPError maps an HTTP status code to a geocoding error.
func ClassifyHTTPError(statusCode int, _ string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusUnauthorized, http.StatusForbidden: // 401, 403
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "endpoint not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// classifyTransportError turns a transport failure into a GeocodingError
// attributed to provider.
func classifyTransportError(provider string, err error) *GeocodingError {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr
	}

	var statusErr *transport.StatusError

	switch {
	case errors.As(err, &statusErr):
		geoErr = ClassifyHTTPError(statusErr.StatusCode, "")
	case errors.Is(err, transport.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		geoErr = &GeocodingError{Type: ErrorTypeTimeout, Message: "no response"}
	case errors.Is(err, transport.ErrCanceled), errors.Is(err, context.Canceled):
		geoErr = &GeocodingError{Type: ErrorTypeCanceled, Message: "request canceled"}
	case errors.Is(err, transport.ErrMalformedPayload):
		geoErr = &GeocodingError{Type: ErrorTypeMalformedResponse, Message: "malformed response"}
	default:
		geoErr = &GeocodingError{Type: ErrorTypeNetworkError, Message: "request failed"}
	}

	geoErr.Message = provider + ": " + geoErr.Message
	geoErr.Err = err

	return geoErr
}
