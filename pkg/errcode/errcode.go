package errcode

import (
	"errors"
	"fmt"
)

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is reports whether target carries the same code, so wrapped copies still
// match their sentinel under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller may retry the operation unchanged.
func (e *Error) Retryable() bool {
	return e.Code == ErrInternalServer.Code || e.Code == ErrConflict.Code
}

// From extracts an *Error from err, falling back to ErrInternalServer.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternalServer.Wrap(err)
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam    = New(1001, "invalid parameter")
	ErrInternalServer  = New(1002, "internal server error")
	ErrUnauthorized    = New(1003, "unauthorized")
	ErrForbidden       = New(1004, "forbidden")
	ErrNotFound        = New(1005, "not found")
	ErrTooManyRequests = New(1006, "too many requests")
	ErrNoPermission    = New(1007, "no permission to access this resource")
	ErrConflict        = New(1008, "concurrent update conflict")

	// Auth and identity errors (2xxx)
	ErrTokenInvalid  = New(2001, "token invalid")
	ErrTokenExpired  = New(2002, "token expired")
	ErrTokenMissing  = New(2003, "token missing")
	ErrUserNotFound  = New(2006, "user not found")
	ErrUserNotSynced = New(2009, "user not synced, call /user/sync first")

	// Conversation errors (3xxx)
	ErrNotParticipant = New(3003, "not a conversation participant")
	ErrGroupTooSmall  = New(3009, "group needs more participants")
	ErrGroupNameEmpty = New(3010, "group name is required")

	// Message errors (4xxx)
	ErrMessageNotFound = New(4001, "message not found")
	ErrConvNotFound    = New(4003, "conversation not found")
	ErrContentEmpty    = New(4005, "message content is empty")
	ErrContentTooLong  = New(4006, "message content too long")
	ErrInvalidEmoji    = New(4007, "emoji not allowed")
	ErrMessageDeleted  = New(4008, "message has been deleted")
	ErrSameUser        = New(4009, "cannot start a conversation with yourself")

	// WebSocket errors (5xxx)
	ErrConnOverLimit   = New(5001, "connection over max limit")
	ErrInvalidProtocol = New(5003, "invalid protocol")
	ErrUnknownQuery    = New(5005, "unknown subscription query")
)
