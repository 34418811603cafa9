package ratchet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gtank/ristretto255"
)

const ristrettoElementSize = 32

// ristrettoKeyPair is a key pair over the ristretto255 prime-order
// group; pub is always present, priv only when this side generated
// it or was constructed from a private scalar.
type ristrettoKeyPair struct {
	scalar  *ristretto255.Scalar
	pub     []byte
	hasPriv bool
}

func (k *ristrettoKeyPair) Public() []byte {
	return append([]byte(nil), k.pub...)
}

func (k *ristrettoKeyPair) Bytes() ([]byte, error) {
	if !k.hasPriv {
		return nil, ErrMissingKey
	}
	return k.scalar.Encode(nil), nil
}

// ristrettoDH implements DH over the ristretto255 group, via
// github.com/gtank/ristretto255 (an indirect dependency of
// codahale-thyrse in the retrieved pack). Unlike the elliptic-curve
// suites above, the public keys here are prime-order group elements
// with no cofactor or low-order-point pitfalls to guard against.
type ristrettoDH struct{}

func (ristrettoDH) Generate(r io.Reader) (KeyPair, error) {
	var seed [64]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, err
	}
	scalar := ristretto255.NewScalar().FromUniformBytes(seed[:])
	pub := ristretto255.NewElement().ScalarBaseMult(scalar).Encode(nil)
	return &ristrettoKeyPair{scalar: scalar, pub: pub, hasPriv: true}, nil
}

func (ristrettoDH) ParsePublic(b []byte) (KeyPair, error) {
	if len(b) != ristrettoElementSize {
		return nil, fmt.Errorf("ristretto dh: invalid public key size: %s", strconv.Itoa(len(b)))
	}
	if err := ristretto255.NewElement().Decode(b); err != nil {
		return nil, fmt.Errorf("ristretto dh: invalid public key: %w", err)
	}
	return &ristrettoKeyPair{pub: append([]byte(nil), b...)}, nil
}

func (ristrettoDH) ParsePrivate(b []byte) (KeyPair, error) {
	scalar := ristretto255.NewScalar()
	if err := scalar.Decode(b); err != nil {
		return nil, fmt.Errorf("ristretto dh: invalid private key: %w", err)
	}
	pub := ristretto255.NewElement().ScalarBaseMult(scalar).Encode(nil)
	return &ristrettoKeyPair{scalar: scalar, pub: pub, hasPriv: true}, nil
}

func (ristrettoDH) SharedSecret(own KeyPair, peerPublic []byte) ([]byte, error) {
	kp, ok := own.(*ristrettoKeyPair)
	if !ok || !kp.hasPriv {
		return nil, ErrMissingKey
	}
	peer := ristretto255.NewElement()
	if err := peer.Decode(peerPublic); err != nil {
		return nil, fmt.Errorf("ristretto dh: invalid public key: %w", err)
	}
	shared := ristretto255.NewElement().ScalarMult(kp.scalar, peer)
	return shared.Encode(nil), nil
}

// NewRistrettoSuite builds the ristretto255 + AES-256-GCM +
// HKDF-SHA256 suite: a prime-order-group DH primitive distinct from
// both elliptic-curve suites above.
func NewRistrettoSuite(aeadInfo []byte) Suite {
	return Suite{
		KDF:  hkdfKDF{},
		DH:   ristrettoDH{},
		AEAD: gcmAEAD{info: aeadInfo},
	}
}
