package datastore

import "fmt"

// Kind distinguishes the handful of ways a data-store call can fail.
// Callers branch on Kind, not on the underlying redis error, so the
// rest of the worker never imports redis directly.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindSerialization
)

// StoreError is the single error type the data-store client returns.
// A list pop that simply found nothing is not an error — see
// Client.ListPopTail.
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("datastore: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(kind Kind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}
