package ir

import "fmt"

// ContractErrorCode categorizes programming-contract violations.
type ContractErrorCode string

const (
	// ErrCodeDuplicateProvider: the same provider identity was mounted twice.
	ErrCodeDuplicateProvider ContractErrorCode = "DUPLICATE_PROVIDER"

	// ErrCodeInvalidRequest: a required argument was absent.
	ErrCodeInvalidRequest ContractErrorCode = "INVALID_REQUEST"

	// ErrCodeUnknownNode: an operation referenced a node that is not attached.
	ErrCodeUnknownNode ContractErrorCode = "UNKNOWN_NODE"
)

// ContractError signals a defect in the caller, not an operational outcome.
// It is raised with panic and is never returned as an ordinary error value.
type ContractError struct {
	Code    ContractErrorCode
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Violation panics with a ContractError.
func Violation(code ContractErrorCode, format string, args ...any) {
	panic(&ContractError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// IsContractError reports whether a recovered panic value is a contract
// violation, optionally of a specific code.
func IsContractError(recovered any, codes ...ContractErrorCode) bool {
	ce, ok := recovered.(*ContractError)
	if !ok {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if ce.Code == c {
			return true
		}
	}
	return false
}
