package domain

import (
	"errors"
	"fmt"
)

// Input errors: the caller omitted a required identifier. The engine
// short-circuits with a structured result and creates no records.
var ErrMissingCustomerID = errors.New("missing customer_id")

// ErrSearchUnavailable is returned when an investigator search is requested
// but no search cluster is configured.
var ErrSearchUnavailable = errors.New("search cluster not configured")

// AdapterError wraps a failure of a downstream collaborator (document
// verification, sanctions screening, PEP lookup). Components catch these
// locally and proceed with conservative defaults.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Adapter, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
