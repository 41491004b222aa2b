// Package apierr provides a standardised error response format for the
// moodlens HTTP API.
//
// Every error response returned by the API uses the same JSON envelope:
//
//	{
//	  "ok":       false,
//	  "error":    "human-readable description",
//	  "code":     "MACHINE_READABLE_CODE",
//	  "status":   400,
//	  "requestId": "…"
//	}
//
// Clients branch on "code" and show "error" to humans. requestId echoes the
// X-Request-ID response header when the middleware has set one.
package apierr

import (
	"encoding/json"
	"net/http"
)

// ---------------------------------------------------------------------------
// Error codes are stable, machine-readable identifiers.
//
// These codes form part of the public API contract. Removing or renaming a
// code is a breaking change; adding new codes is always safe.
// ---------------------------------------------------------------------------

const (
	// General
	CodeBadRequest       = "BAD_REQUEST"
	CodeInvalidJSON      = "INVALID_JSON"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotAcceptable    = "NOT_ACCEPTABLE"

	// Analysis domain
	CodeTextRequired     = "TEXT_REQUIRED"
	CodeTextTooLarge     = "TEXT_TOO_LARGE"
	CodeInvalidCheckin   = "INVALID_CHECKIN"
	CodeBatchEmpty       = "BATCH_EMPTY"
	CodeBatchTooLarge    = "BATCH_TOO_LARGE"
	CodeBaselineDisabled = "BASELINE_DISABLED"
)

// ---------------------------------------------------------------------------
// Response type
// ---------------------------------------------------------------------------

// Response is the standard error envelope returned to API clients.
type Response struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`

	RequestID string `json:"requestId,omitempty"`
}

// ---------------------------------------------------------------------------
// Writer helpers
// ---------------------------------------------------------------------------

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Write serialises an error Response and writes it to w with the appropriate
// HTTP status code. Content-Type is always set to application/json.
func Write(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		OK:        false,
		Error:     message,
		Code:      code,
		Status:    status,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

// ---------------------------------------------------------------------------
// Convenience shortcuts for the most common error patterns.
// Each function maps to a specific HTTP status + error code pair so that
// handler code stays concise.
// ---------------------------------------------------------------------------

// BadRequest writes a 400 response with the given code and message.
func BadRequest(w http.ResponseWriter, code, msg string) {
	Write(w, http.StatusBadRequest, code, msg)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, code, msg string) {
	Write(w, http.StatusNotFound, code, msg)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	Write(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, msg string) {
	Write(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "too many requests"
	}
	Write(w, http.StatusTooManyRequests, CodeRateLimited, msg)
}

// Internal writes a 500 response.
func Internal(w http.ResponseWriter, msg string) {
	Write(w, http.StatusInternalServerError, CodeInternalError, msg)
}

// InvalidJSON writes a 400 response for malformed request bodies.
func InvalidJSON(w http.ResponseWriter) {
	BadRequest(w, CodeInvalidJSON, "invalid JSON in request body")
}

// PayloadTooLarge writes a 413 response when body/content exceeds configured bounds.
func PayloadTooLarge(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "payload too large"
	}
	Write(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, msg)
}

// TextTooLarge writes a 413 response when a single text exceeds the limit.
func TextTooLarge(w http.ResponseWriter, msg string) {
	Write(w, http.StatusRequestEntityTooLarge, CodeTextTooLarge, msg)
}

// BatchTooLarge writes a 413 response for oversized batches.
func BatchTooLarge(w http.ResponseWriter, msg string) {
	Write(w, http.StatusRequestEntityTooLarge, CodeBatchTooLarge, msg)
}

// BaselineDisabled writes a 404 response when the VADER baseline is off.
func BaselineDisabled(w http.ResponseWriter) {
	NotFound(w, CodeBaselineDisabled, "baseline comparison is disabled; set engine.baselineEnabled")
}

// NotAcceptable writes a 406 response for unsupported Accept headers.
func NotAcceptable(w http.ResponseWriter, msg string) {
	Write(w, http.StatusNotAcceptable, CodeNotAcceptable, msg)
}
