package models

import "errors"

// BridgeErrorCode is a machine-readable error code returned in error responses
type BridgeErrorCode string

const (
	ErrorCodeBadRequest       BridgeErrorCode = "BAD_REQUEST"
	ErrorCodeUnauthorized     BridgeErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden        BridgeErrorCode = "FORBIDDEN"
	ErrorCodeNotFound         BridgeErrorCode = "NOT_FOUND"
	ErrorCodeMethodNotAllowed BridgeErrorCode = "METHOD_NOT_ALLOWED"
	ErrorCodeInternalError    BridgeErrorCode = "INTERNAL_ERROR"
)

// Sentinel errors for membership operations. Handlers map these to HTTP
// statuses with errors.Is.
var (
	// ErrSignatureMissing indicates the webhook carried no signature header
	ErrSignatureMissing = errors.New("webhook signature missing")
	// ErrSignatureMismatch indicates the HMAC digest did not match the header
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
	// ErrMembershipNotFound indicates no record matched the queried identifier
	ErrMembershipNotFound = errors.New("membership record not found")
	// ErrMembershipCreateFailed wraps store failures during ingestion
	ErrMembershipCreateFailed = errors.New("failed to create membership record")
	// ErrResolutionFailed wraps store or upstream failures during resolution
	ErrResolutionFailed = errors.New("failed to resolve membership")
)
