package reconcile

import (
	"errors"
	"fmt"
)

// ErrCode categorizes reconciliation errors.
type ErrCode string

const (
	// ErrCodeAllCreatesFailed indicates every create-request call failed;
	// no exports are possible and the run aborts.
	ErrCodeAllCreatesFailed ErrCode = "ALL_CREATES_FAILED"

	// ErrCodeAuthUnresolved indicates no authorization value could be
	// resolved from the session. Soft: the run proceeds without one.
	ErrCodeAuthUnresolved ErrCode = "AUTH_UNRESOLVED"

	// ErrCodeAccountUnavailable indicates an account's download request
	// never appeared after the preparation wait. Soft: the account is
	// skipped for this run.
	ErrCodeAccountUnavailable ErrCode = "ACCOUNT_UNAVAILABLE"

	// ErrCodeDownloadFailed indicates a malformed prepare response, missing
	// export URL, or failed fetch for one account. Soft.
	ErrCodeDownloadFailed ErrCode = "DOWNLOAD_FAILED"

	// ErrCodeConfig indicates the engine was constructed with an unusable
	// configuration.
	ErrCodeConfig ErrCode = "CONFIG"
)

// ReconcileError is a coded error raised by the engine.
//
// Account is set for per-account (soft) failures and empty for run-level
// ones. Only ErrCodeAllCreatesFailed and ErrCodeConfig abort a run; every
// other code is reported and skipped past.
type ReconcileError struct {
	Code    ErrCode
	Account string
	Message string
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.Account != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s (account=%s): %v", e.Code, e.Message, e.Account, e.Err)
		}
		return fmt.Sprintf("%s: %s (account=%s)", e.Code, e.Message, e.Account)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Is matches two ReconcileErrors on code alone, so callers can test for a
// category without caring which account tripped it.
func (e *ReconcileError) Is(target error) bool {
	var other *ReconcileError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

func newError(code ErrCode, message string) *ReconcileError {
	return &ReconcileError{Code: code, Message: message}
}

func newAccountError(code ErrCode, account, message string, err error) *ReconcileError {
	return &ReconcileError{Code: code, Account: account, Message: message, Err: err}
}
