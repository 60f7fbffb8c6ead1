package types

import "errors"

// WCError is the structured error surfaced by the provider layer.
type WCError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *WCError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrInvalidGroup        = "INVALID_GROUP"
	ErrMalformedIdentifier = "MALFORMED_IDENTIFIER"
	ErrNotPermitted        = "NOT_PERMITTED"
	ErrNoCompatibleAccount = "NO_COMPATIBLE_ACCOUNT"
	ErrUnauthorizedMethod  = "UNAUTHORIZED_METHOD"
	ErrSignerMismatch      = "SIGNER_MISMATCH"
	ErrInvalidParams       = "INVALID_PARAMS"
	ErrInvalidState        = "INVALID_STATE"
	ErrTransport           = "TRANSPORT_ERROR"
	ErrEmptyResult         = "EMPTY_RESULT"
	ErrProposalRejected    = "PROPOSAL_REJECTED"
	ErrRequestFailed       = "REQUEST_FAILED"
)

// HasCode reports whether err (or anything it wraps) is a WCError carrying
// the given code.
func HasCode(err error, code string) bool {
	var wcErr *WCError
	if errors.As(err, &wcErr) {
		return wcErr.Code == code
	}
	return false
}

// RPC error codes used in wire error envelopes.
const (
	RPCCodeInvalidParams  = -32602
	RPCCodeMethodNotFound = -32601
	RPCCodeInternal       = -32000
	RPCCodeUnauthorized   = 4100
	RPCCodeUserRejected   = 4001
)

// RPCCodeFor maps a provider error code to its RPC envelope code.
func RPCCodeFor(code string) int {
	switch code {
	case ErrInvalidParams, ErrMalformedIdentifier, ErrInvalidGroup:
		return RPCCodeInvalidParams
	case ErrUnauthorizedMethod:
		return RPCCodeMethodNotFound
	case ErrNotPermitted, ErrSignerMismatch:
		return RPCCodeUnauthorized
	case ErrProposalRejected:
		return RPCCodeUserRejected
	default:
		return RPCCodeInternal
	}
}
