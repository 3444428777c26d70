package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

// Sentinels for the failure modes callers branch on with errors.Is. Errors
// that are only reported, never matched, are built inline with Wrap.
var (
	ErrProfileNotFound = &AppError{Code: "STORE_003", Message: "user profile not found"}
	ErrStateCorrupted  = &AppError{Code: "STORE_004", Message: "persisted state corrupted"}

	ErrSignalUnavailable = &AppError{Code: "SIGNAL_001", Message: "signal provider unavailable"}
	ErrSignalTimeout     = &AppError{Code: "SIGNAL_002", Message: "signal provider timed out"}

	ErrCounterInvariant = &AppError{Code: "SCHED_004", Message: "intervention counter exceeded cap"}

	ErrNotifierNotConfigured = &AppError{Code: "NOTIFY_001", Message: "notifier not configured"}
	ErrNotifyDelivery        = &AppError{Code: "NOTIFY_002", Message: "notification delivery failed"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
