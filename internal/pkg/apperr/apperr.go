// internal/pkg/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 是稳定的、机器可读的业务错误码。
// 调用方依据 Code 做分支判断，而不是匹配人类可读的 Message 字符串。
type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeUnavailable           Code = "UNAVAILABLE"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeQuantityLimitExceeded Code = "QUANTITY_LIMIT_EXCEEDED"
	CodeMinPurchaseNotMet     Code = "MIN_PURCHASE_NOT_MET"
	CodeCouponExpired         Code = "COUPON_EXPIRED"
	CodeCouponInactive        Code = "COUPON_INACTIVE"
	CodeAlreadyProcessing     Code = "ALREADY_PROCESSING"
	CodeValidationFailed      Code = "VALIDATION_FAILED"
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	CodeTokenRevoked          Code = "TOKEN_REVOKED"
)

// Error 是所有用户可见业务失败的载体。
// Code 与 Message 分离：前者给程序，后者给人。
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New 创建一个带错误码的业务错误。
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 在保留底层原因的同时附加业务错误码。
func Wrap(cause error, code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf 提取错误链上的业务错误码；非业务错误一律归为依赖不可用。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeDependencyUnavailable
}

// Is 判断错误链上是否携带指定错误码。
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus 将业务错误码映射为 HTTP 状态码，供接口层使用。
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable, CodeCouponExpired, CodeCouponInactive:
		return http.StatusConflict
	case CodeInsufficientStock, CodeQuantityLimitExceeded, CodeMinPurchaseNotMet, CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case CodeAlreadyProcessing:
		return http.StatusTooManyRequests
	case CodeTokenRevoked:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
