package checkout

import (
	"fmt"
	"strings"
)

// ValidationError reports user-correctable input problems. No side effects
// have occurred when one is returned. Fields lists missing required fields;
// format failures carry only a Reason.
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
	}
	return e.Reason
}

// ProductUnavailableError means a referenced product no longer exists or is
// not active. The whole order is rejected; nothing was reserved.
type ProductUnavailableError struct {
	ProductIDs []int64
}

func (e *ProductUnavailableError) Error() string {
	parts := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "product unavailable: " + strings.Join(parts, ", ")
}

// PersistenceError means the order write failed after stock was already
// reserved. The reservation has been released by the time it is returned, so
// callers surface it as a generic retryable failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order could not be saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
