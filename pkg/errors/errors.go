package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// pipeline-specific codes
	CodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	CodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeSchemaInvalid    ErrorCode = "SCHEMA_INVALID"
	CodeContextOverflow  ErrorCode = "CONTEXT_OVERFLOW"
	CodeBusy             ErrorCode = "BUSY"
	CodeCancelled        ErrorCode = "CANCELLED_BY_USER"
	CodeTimedOut         ErrorCode = "TIMED_OUT"
	CodeDeliveryFailed   ErrorCode = "DELIVERY_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError 创建无效输入错误
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

// NewAlreadyExistsError 创建已存在错误
func NewAlreadyExistsError(message string) *AppError {
	return &AppError{
		Code:    CodeAlreadyExists,
		Message: message,
	}
}

// NewInternalError 创建内部错误
func NewInternalError(message string) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
	}
}

// NewInternalErrorWithCause 创建带原因的内部错误
func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Err:     cause,
	}
}

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsInvalidInput 判断是否为无效输入错误
func IsInvalidInput(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeInvalidInput
	}
	return false
}

// NewConfigInvalidError 创建配置无效错误
func NewConfigInvalidError(message string, cause error) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message, Err: cause}
}

// NewTransientNetworkError 创建瞬时网络错误，调用方可重试
func NewTransientNetworkError(message string, cause error) *AppError {
	return &AppError{Code: CodeTransientNetwork, Message: message, Err: cause}
}

// NewRateLimitedError 创建限流错误
func NewRateLimitedError(message string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: message}
}

// NewSchemaInvalidError 创建结构化输出不符合 schema 的错误
func NewSchemaInvalidError(message string, cause error) *AppError {
	return &AppError{Code: CodeSchemaInvalid, Message: message, Err: cause}
}

// NewContextOverflowError 创建上下文超长错误
func NewContextOverflowError(message string) *AppError {
	return &AppError{Code: CodeContextOverflow, Message: message}
}

// NewBusyError 创建执行控制器繁忙错误
func NewBusyError(message string) *AppError {
	return &AppError{Code: CodeBusy, Message: message}
}

// NewCancelledError 创建用户取消错误
func NewCancelledError(message string) *AppError {
	return &AppError{Code: CodeCancelled, Message: message}
}

// NewTimedOutError 创建超时错误
func NewTimedOutError(message string) *AppError {
	return &AppError{Code: CodeTimedOut, Message: message}
}

// NewDeliveryFailedError 创建投递失败错误
func NewDeliveryFailedError(message string, cause error) *AppError {
	return &AppError{Code: CodeDeliveryFailed, Message: message, Err: cause}
}

// IsTransientNetwork 判断是否为可重试的网络错误
func IsTransientNetwork(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeTransientNetwork
	}
	return false
}

// IsRateLimited 判断是否为限流错误
func IsRateLimited(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeRateLimited
	}
	return false
}

// IsContextOverflow 判断是否为上下文超长错误
func IsContextOverflow(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeContextOverflow
	}
	return false
}

// IsBusy 判断是否为执行控制器繁忙错误
func IsBusy(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeBusy
	}
	return false
}
