package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeInvalidSyntax       = "invalid_syntax"
	ErrCodeInvalidName         = "invalid_name"
	ErrCodeNameTaken           = "name_taken"
	ErrCodeNotFound            = "not_found"
	ErrCodeNoSuchGroup         = "no_such_group"
	ErrCodeNotAMember          = "not_a_member"
	ErrCodeNotAuthorized       = "not_authorized"
	ErrCodeAlreadyExists       = "already_exists"
	ErrCodeAlreadyMember       = "already_member"
	ErrCodeAlreadyAdmin        = "already_admin"
	ErrCodeUnknownUser         = "unknown_user"
	ErrCodeUsernameMismatch    = "username_mismatch"
	ErrCodeInvalidGroupCommand = "invalid_group_command"
	ErrCodeShuttingDown        = "shutting_down"
)

var (
	ErrInvalidSyntax       = errors.New("invalid syntax")
	ErrInvalidName         = errors.New("invalid name")
	ErrNameTaken           = errors.New("name taken")
	ErrNotFound            = errors.New("not found")
	ErrNoSuchGroup         = errors.New("no such group")
	ErrNotAMember          = errors.New("not a member")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAlreadyExists       = errors.New("already exists")
	ErrAlreadyMember       = errors.New("already member")
	ErrAlreadyAdmin        = errors.New("already admin")
	ErrUnknownUser         = errors.New("unknown user")
	ErrUsernameMismatch    = errors.New("username mismatch")
	ErrInvalidGroupCommand = errors.New("invalid group command")
	ErrShuttingDown        = errors.New("server is shutting down")
)

var sentinels = map[string]error{
	ErrCodeInvalidSyntax:       ErrInvalidSyntax,
	ErrCodeInvalidName:         ErrInvalidName,
	ErrCodeNameTaken:           ErrNameTaken,
	ErrCodeNotFound:            ErrNotFound,
	ErrCodeNoSuchGroup:         ErrNoSuchGroup,
	ErrCodeNotAMember:          ErrNotAMember,
	ErrCodeNotAuthorized:       ErrNotAuthorized,
	ErrCodeAlreadyExists:       ErrAlreadyExists,
	ErrCodeAlreadyMember:       ErrAlreadyMember,
	ErrCodeAlreadyAdmin:        ErrAlreadyAdmin,
	ErrCodeUnknownUser:         ErrUnknownUser,
	ErrCodeUsernameMismatch:    ErrUsernameMismatch,
	ErrCodeInvalidGroupCommand: ErrInvalidGroupCommand,
	ErrCodeShuttingDown:        ErrShuttingDown,
}

// CoreError wraps a code and human-readable message.
// The message is what the originating client sees.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap maps the code back to its sentinel so callers can use errors.Is.
func (e *CoreError) Unwrap() error {
	return sentinels[e.Code]
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func coreErrorf(code, format string, args ...any) *CoreError {
	return &CoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsCoreError extracts a *CoreError from err, if any.
func AsCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
