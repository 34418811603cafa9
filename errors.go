package ratchet

import "errors"

// Sentinel errors returned by this package. Callers should use
// errors.Is to check for them, since they are frequently wrapped
// with additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotInitialized is returned by Encrypt when the sending chain
	// has not been seeded yet (a passively-bootstrapped session that
	// has not received anything).
	ErrNotInitialized = errors.New("ratchet: chain not initialized")

	// ErrTooManySavedMessageKeys is returned when storing a skipped
	// message key would exceed Config.MaxSkip. The session is left
	// exactly as it was before the call.
	ErrTooManySavedMessageKeys = errors.New("ratchet: too many saved message keys")

	// ErrAuthenticationFailure is returned when AEAD verification
	// fails during Decrypt. The session is left exactly as it was
	// before the call.
	ErrAuthenticationFailure = errors.New("ratchet: authentication failure")

	// ErrMissingKey is returned when a DH or KeyPair operation needs
	// key material (usually a private scalar) that it was not given.
	ErrMissingKey = errors.New("ratchet: missing key material")

	// ErrMalformedHeader is returned when decoding a wire-format
	// header fails.
	ErrMalformedHeader = errors.New("ratchet: malformed header")

	// ErrMalformedDocument is returned when decoding a serialized
	// session document fails.
	ErrMalformedDocument = errors.New("ratchet: malformed document")
)
