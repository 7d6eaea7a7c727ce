package sdk

import (
	"errors"
	"fmt"
)

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// Is matches on the code, so errors.Is(err, sdk.ErrNotParticipant) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// CodeOf returns the API code carried by err, or -1
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}

// Error codes returned by the server
const (
	CodeSuccess = 0

	CodeInvalidParam    = 1001
	CodeInternalServer  = 1002
	CodeUnauthorized    = 1003
	CodeNotFound        = 1005
	CodeTooManyRequests = 1006
	CodeNoPermission    = 1007
	CodeConflict        = 1008

	CodeTokenInvalid  = 2001
	CodeTokenExpired  = 2002
	CodeTokenMissing  = 2003
	CodeUserNotFound  = 2006
	CodeUserNotSynced = 2009

	CodeNotParticipant = 3003
	CodeGroupTooSmall  = 3009
	CodeGroupNameEmpty = 3010

	CodeMessageNotFound = 4001
	CodeConvNotFound    = 4003
	CodeContentEmpty    = 4005
	CodeContentTooLong  = 4006
	CodeInvalidEmoji    = 4007
	CodeMessageDeleted  = 4008
	CodeSameUser        = 4009
)

// Predefined errors for errors.Is
var (
	ErrInvalidParam    = NewError(CodeInvalidParam, "invalid parameter")
	ErrNoPermission    = NewError(CodeNoPermission, "no permission to access this resource")
	ErrUserNotSynced   = NewError(CodeUserNotSynced, "user not synced, call /user/sync first")
	ErrNotParticipant  = NewError(CodeNotParticipant, "not a conversation participant")
	ErrConvNotFound    = NewError(CodeConvNotFound, "conversation not found")
	ErrMessageNotFound = NewError(CodeMessageNotFound, "message not found")
	ErrInvalidEmoji    = NewError(CodeInvalidEmoji, "emoji not allowed")
)
