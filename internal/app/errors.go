package app

import "fmt"

// DomainError is a caller-facing failure with an HTTP status and a stable
// machine code such as VALIDATION_ERROR or ROW_ALREADY_ASSIGNED. Anything
// that is not a DomainError surfaces as a 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
