package app

import (
	"fmt"
)

// FailureKind classifies dashboard failures. None of them is fatal.
type FailureKind int

const (
	// Unauthenticated: probe or callback exchange failed.
	Unauthenticated FailureKind = iota + 1
	// MutationFailure: create, delete, generate or deck selection failed.
	// Surfaced as an error notice; form inputs are kept.
	MutationFailure
	// FetchFailure: a refetch failed. Logged only; stale data stays.
	FetchFailure
)

func (k FailureKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case MutationFailure:
		return "mutation"
	case FetchFailure:
		return "fetch"
	default:
		return "unknown"
	}
}

// Failure is returned by Dashboard transitions.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure in %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
