package ratchet

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/curve25519"
)

// djbKeyPair is an x25519 key pair; pub is always present, priv only
// when this side generated it or was constructed from a private key.
type djbKeyPair struct {
	priv    [curve25519.ScalarSize]byte
	pub     [curve25519.PointSize]byte
	hasPriv bool
}

func (k *djbKeyPair) Public() []byte {
	return append([]byte(nil), k.pub[:]...)
}

func (k *djbKeyPair) Bytes() ([]byte, error) {
	if !k.hasPriv {
		return nil, ErrMissingKey
	}
	return append([]byte(nil), k.priv[:]...), nil
}

// djbDH implements DH over x25519, the teacher's original backend.
type djbDH struct{}

func (djbDH) Generate(r io.Reader) (KeyPair, error) {
	var kp djbKeyPair
	if _, err := io.ReadFull(r, kp.priv[:]); err != nil {
		return nil, err
	}
	kp.priv[0] &= 248
	kp.priv[31] &= 127
	kp.priv[31] |= 64
	pub, err := curve25519.X25519(kp.priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.pub[:], pub)
	kp.hasPriv = true
	return &kp, nil
}

func (djbDH) ParsePublic(b []byte) (KeyPair, error) {
	if len(b) != curve25519.PointSize {
		return nil, fmt.Errorf("djb dh: invalid public key size: %s", strconv.Itoa(len(b)))
	}
	var kp djbKeyPair
	copy(kp.pub[:], b)
	return &kp, nil
}

func (djbDH) ParsePrivate(b []byte) (KeyPair, error) {
	if len(b) != curve25519.ScalarSize {
		return nil, fmt.Errorf("djb dh: invalid private key size: %s", strconv.Itoa(len(b)))
	}
	var kp djbKeyPair
	copy(kp.priv[:], b)
	pub, err := curve25519.X25519(kp.priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.pub[:], pub)
	kp.hasPriv = true
	return &kp, nil
}

func (djbDH) SharedSecret(own KeyPair, peerPublic []byte) ([]byte, error) {
	kp, ok := own.(*djbKeyPair)
	if !ok || !kp.hasPriv {
		return nil, ErrMissingKey
	}
	if len(peerPublic) != curve25519.PointSize {
		return nil, fmt.Errorf("djb dh: invalid public key size: %s", strconv.Itoa(len(peerPublic)))
	}
	return curve25519.X25519(kp.priv[:], peerPublic)
}

// NewDJBSuite builds the x25519 + XChaCha20-Poly1305 + HKDF-SHA256
// suite: the teacher pack's original DJB backend, generalized to the
// split KDF/DH/AEAD interfaces. aeadInfo labels the per-message AEAD
// key derivation.
func NewDJBSuite(aeadInfo []byte) Suite {
	return Suite{
		KDF:  hkdfKDF{},
		DH:   djbDH{},
		AEAD: xchachaAEAD{info: aeadInfo},
	}
}
