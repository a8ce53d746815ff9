package program

import "errors"

var (
	// ErrInvalidAddress is returned when the supplied tree address is not the one derived for the payer.
	ErrInvalidAddress = errors.New("invalid tree address provided")

	// ErrAccountAlreadyInitialized is returned when initializing a tree whose account already exists.
	ErrAccountAlreadyInitialized = errors.New("tree account already initialized")

	// ErrHasherMismatch is returned when a tree account was built with a different hash function than the processor's.
	ErrHasherMismatch = errors.New("tree account hasher mismatch")

	// ErrAccountNotInitialized is returned when an instruction targets a tree account that does not exist.
	ErrAccountNotInitialized = errors.New("tree account not initialized")
)
