package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation         ErrCode = "validation_error"
	CodeNotFound           ErrCode = "not_found"
	CodeForbidden          ErrCode = "forbidden"
	CodeInvalidState       ErrCode = "invalid_state"
	CodePreconditionFailed ErrCode = "precondition_failed"
	CodeExternalFailure    ErrCode = "external_failure"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }
func ErrPrecondition(msg string) error {
	return &AppError{Code: CodePreconditionFailed, Message: msg}
}
func ErrExternal(msg string, cause error) error {
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &AppError{Code: CodeExternalFailure, Message: msg}
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code ErrCode) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
