package utils

import (
	"errors"
	"fmt"
)

// ResponseCode business error code
type ResponseCode int

// Error code ranges: 1xxx parameter, 2xxx activity, 3xxx stock, 5xxx system
const (
	CodeSuccess           ResponseCode = 0
	CodeInvalidParam      ResponseCode = 1001
	CodeActivityNotFound  ResponseCode = 2001
	CodeProductNotFound   ResponseCode = 2002
	CodeRuleNotFound      ResponseCode = 2003
	CodeActivityConflict  ResponseCode = 2004
	CodeInsufficientStock ResponseCode = 3001
	CodeStockOperation    ResponseCode = 3002
	CodeInternalError     ResponseCode = 5000
	CodeDatabaseError     ResponseCode = 5001
	CodeCacheError        ResponseCode = 5002
)

// AppError application error structure
type AppError struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap implement errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match AppErrors by code
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError create new application error
func NewError(code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError wrap a lower-level error with a business code
func WrapError(err error, code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Predefined errors
var (
	// Parameter errors
	ErrInvalidParam = NewError(CodeInvalidParam, "invalid parameter")

	// Activity related errors
	ErrActivityNotFound = NewError(CodeActivityNotFound, "activity not found")
	ErrProductNotFound  = NewError(CodeProductNotFound, "activity product not found")
	ErrRuleNotFound     = NewError(CodeRuleNotFound, "discount rule not found")
	ErrActivityConflict = NewError(CodeActivityConflict, "activity conflict")

	// Stock related errors
	ErrInsufficientStock = NewError(CodeInsufficientStock, "insufficient stock")
	ErrStockOperation    = NewError(CodeStockOperation, "stock operation failed")

	// System errors
	ErrInternalError = NewError(CodeInternalError, "internal server error")
	ErrDatabaseError = NewError(CodeDatabaseError, "database error")
	ErrCacheError    = NewError(CodeCacheError, "cache error")
)

// IsAppError check if it's an application error
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode get error code
func GetErrorCode(err error) ResponseCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

// GetErrorMessage get error message
func GetErrorMessage(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
