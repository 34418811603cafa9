package ratchet

import "io"

// KDF is a pure key-derivation function: it folds key material and
// an input into a byte string at least as long as n, deterministic
// in (key, info, input).
//
// KDF implementations must not retain key or input after returning.
type KDF interface {
	Derive(key, info, input []byte, n int) ([]byte, error)
}

// KeyPair is an opaque Diffie-Hellman key pair. It may hold only a
// public half (a peer's key, received over the wire) in which case
// Bytes returns ErrMissingKey.
type KeyPair interface {
	// Public returns the public half, copied.
	Public() []byte
	// Bytes returns the private half, copied. Returns ErrMissingKey
	// if this KeyPair was constructed from a public key only.
	Bytes() ([]byte, error)
}

// DH generates Diffie-Hellman key pairs and computes shared secrets
// for a particular group (x25519, a NIST curve, ristretto255, ...).
type DH interface {
	// Generate creates a new key pair, using r as an entropy source.
	Generate(r io.Reader) (KeyPair, error)
	// ParsePublic interprets raw bytes (as produced by KeyPair.Public)
	// as a peer's public key.
	ParsePublic(b []byte) (KeyPair, error)
	// ParsePrivate interprets raw bytes (as produced by KeyPair.Bytes)
	// as an own key pair, recovering the public half.
	ParsePrivate(b []byte) (KeyPair, error)
	// SharedSecret computes the Diffie-Hellman shared secret between
	// own (which must hold a private half) and peer's public key.
	// Returns ErrMissingKey if own has no private half.
	SharedSecret(own KeyPair, peerPublic []byte) ([]byte, error)
}

// AEAD authenticates and encrypts (or verifies and decrypts) a
// single message under a message key and associated data.
type AEAD interface {
	Seal(key, plaintext, additionalData []byte) ([]byte, error)
	Open(key, ciphertext, additionalData []byte) ([]byte, error)
}

// Suite bundles the KDF, DH, and AEAD primitives a session needs.
// The KDF domain-separation labels live in Config, not here.
// The engine is polymorphic over any Suite; see suite_djb.go,
// suite_nist.go, suite_x448.go, and suite_ristretto.go for concrete
// instances.
type Suite struct {
	KDF  KDF
	DH   DH
	AEAD AEAD
}
