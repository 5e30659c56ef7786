package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a provider-facing error into one of a fixed set of
// buckets so that calling code can branch on error category without
// parsing provider-specific payloads.
type Kind string

const (
	KindAuth                  Kind = "auth"
	KindInvalidRequest        Kind = "invalid_request"
	KindNotFound              Kind = "not_found"
	KindRateLimit             Kind = "rate_limit"
	KindQuotaExceeded         Kind = "quota_exceeded"
	KindContentFilter         Kind = "content_filter"
	KindModelNotAvailable     Kind = "model_not_available"
	KindServer                Kind = "server"
	KindTimeout               Kind = "timeout"
	KindConnection            Kind = "connection"
	KindCancelled             Kind = "cancelled"
	KindResponseFormat        Kind = "response_format"
	KindUnsupportedCapability Kind = "unsupported_capability"
	KindGeneric               Kind = "generic"
)

// APIError is the single tagged error type surfaced by providers once a
// raw HTTP or transport failure has been classified. Kind is stable
// across providers; Provider, StatusCode and Raw retain enough of the
// original payload for logging and debugging.
type APIError struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Message    string

	// RetryAfter is populated for KindRateLimit when the provider sent a
	// Retry-After header or equivalent payload field.
	RetryAfter *time.Duration

	// QuotaType distinguishes billing-credit exhaustion from token/rate
	// quota exhaustion for KindQuotaExceeded (e.g. "credits", "tokens").
	QuotaType string

	// FilterType carries the provider's content-filter category for
	// KindContentFilter (e.g. "safety", "copyright").
	FilterType string

	// ModelID is set for KindModelNotAvailable and KindNotFound when the
	// failing model is known.
	ModelID string

	// Raw is a truncated copy of the original response payload, kept for
	// KindResponseFormat and general diagnostics.
	Raw string

	Cause error
}

func (e *APIError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &APIError{Kind: KindRateLimit}) style checks
// that only compare Kind, ignoring every other field.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

const rawPayloadTruncateLen = 2048

func truncateRaw(body []byte) string {
	if len(body) > rawPayloadTruncateLen {
		return string(body[:rawPayloadTruncateLen]) + "...(truncated)"
	}
	return string(body)
}

// errorPayload mirrors the {"error": {...}} envelope shared by OpenAI,
// Anthropic, and most OpenAI/Anthropic-compatible vendors. Not every
// field is populated by every provider.
type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Param   string `json:"param"`
	} `json:"error"`
}

// MapHTTPError classifies a non-2xx HTTP response into an *APIError.
// Payload-derived classification always takes precedence over the bare
// status-code fallback: a 429 whose body names "insufficient_quota" is
// QuotaExceeded, never RateLimit, even though 429 alone maps to
// RateLimit.
func MapHTTPError(provider string, statusCode int, body []byte, headers http.Header) *APIError {
	var payload errorPayload
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error.Message
	if msg == "" {
		msg = truncateRaw(body)
	}

	base := &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    msg,
		Raw:        truncateRaw(body),
	}

	errType := payload.Error.Type
	errCode := payload.Error.Code

	switch {
	case errType == "insufficient_quota" || errCode == "insufficient_quota":
		base.Kind = KindQuotaExceeded
		base.QuotaType = "tokens"
		return base
	case errType == "content_filter" || errCode == "content_filter" || errType == "content_policy_violation":
		base.Kind = KindContentFilter
		base.FilterType = errType
		return base
	case errType == "model_not_found" || errCode == "model_not_found":
		base.Kind = KindModelNotAvailable
		return base
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		base.Kind = KindAuth
	case http.StatusNotFound:
		base.Kind = KindNotFound
	case http.StatusTooManyRequests:
		base.Kind = KindRateLimit
		if d, ok := retryAfterFromHeader(headers); ok {
			base.RetryAfter = &d
		}
	case http.StatusPaymentRequired:
		base.Kind = KindQuotaExceeded
		base.QuotaType = "credits"
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		base.Kind = KindTimeout
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base.Kind = KindInvalidRequest
	default:
		if statusCode >= 500 {
			base.Kind = KindServer
		} else {
			base.Kind = KindGeneric
		}
	}

	return base
}

func retryAfterFromHeader(headers http.Header) (time.Duration, bool) {
	if headers == nil {
		return 0, false
	}
	v := headers.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t), true
	}
	return 0, false
}

// MapTransportError classifies an error returned below the HTTP layer
// (context cancellation, deadline, connection refused/reset) into an
// *APIError. Errors that are already *APIError pass through unchanged.
func MapTransportError(provider string, err error) *APIError {
	if err == nil {
		return nil
	}

	var existing *APIError
	if errors.As(err, &existing) {
		return existing
	}

	if errors.Is(err, context.Canceled) {
		return &APIError{Kind: KindCancelled, Provider: provider, Message: "request cancelled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Provider: provider, Message: "request timed out", Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Provider: provider, Message: "request timed out", Cause: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &APIError{Kind: KindConnection, Provider: provider, Message: "connection failed", Cause: err}
	}

	return &APIError{Kind: KindGeneric, Provider: provider, Message: err.Error(), Cause: err}
}

// NewResponseFormatError builds a KindResponseFormat error for payloads
// that fail schema validation or JSON decoding after a successful HTTP
// response, retaining a truncated copy of the raw payload for debugging.
func NewResponseFormatError(provider, message string, raw []byte, cause error) *APIError {
	return &APIError{
		Kind:     KindResponseFormat,
		Provider: provider,
		Message:  message,
		Raw:      truncateRaw(raw),
		Cause:    cause,
	}
}

// NewUnsupportedCapabilityError reports that a requested capability
// (e.g. vision, tool calling) is not supported by the resolved model or
// provider.
func NewUnsupportedCapabilityError(provider, modelID, capability string) *APIError {
	return &APIError{
		Kind:     KindUnsupportedCapability,
		Provider: provider,
		ModelID:  modelID,
		Message:  fmt.Sprintf("capability %q is not supported by %s/%s", capability, provider, modelID),
	}
}
