package garage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("garage: document not found")
	// ErrReference indicates a link to a document that does not exist.
	ErrReference = errors.New("garage: dangling reference")
	// ErrUniqueness indicates a duplicate natural key.
	ErrUniqueness = errors.New("garage: duplicate value")
	// ErrRange indicates an invalid time interval.
	ErrRange = errors.New("garage: invalid range")
	// ErrConsistency indicates a cross-document mismatch.
	ErrConsistency = errors.New("garage: inconsistent documents")
	// ErrDuplicate indicates an operation that would duplicate an
	// existing link, e.g. re-invoicing a job card.
	ErrDuplicate = errors.New("garage: duplicate link")
	// ErrEmptyOrder indicates a billing action on a job card without items.
	ErrEmptyOrder = errors.New("garage: no service or part items")
	// ErrInvalidState indicates the document status does not permit the
	// requested transition.
	ErrInvalidState = errors.New("garage: invalid state for transition")
)

// Shortfall describes one part item that cannot be covered by the stock on
// hand in its effective warehouse.
type Shortfall struct {
	ItemCode  string  `json:"item"`
	Warehouse string  `json:"warehouse"`
	Available float64 `json:"available"`
	Required  float64 `json:"required"`
}

// InsufficientStockError carries the complete list of shortfalls found
// during the pre-invoice stock check, not just the first one.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	var b strings.Builder
	b.WriteString("insufficient stock for the following items:")
	for _, s := range e.Shortfalls {
		fmt.Fprintf(&b, " [item=%s warehouse=%s available=%g required=%g]",
			s.ItemCode, s.Warehouse, s.Available, s.Required)
	}
	return b.String()
}

// CreationError wraps an unexpected failure while creating a downstream
// quotation or sales invoice. The source job card is guaranteed unchanged
// when this error is returned.
type CreationError struct {
	Doc string
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("error creating %s: %v", e.Doc, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
