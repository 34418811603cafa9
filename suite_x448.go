package ratchet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cloudflare/circl/dh/x448"
)

// x448KeyPair is an X448 key pair; pub is always present, priv only
// when this side generated it or was constructed from a private key.
type x448KeyPair struct {
	priv    x448.Key
	pub     x448.Key
	hasPriv bool
}

func (k *x448KeyPair) Public() []byte {
	return append([]byte(nil), k.pub[:]...)
}

func (k *x448KeyPair) Bytes() ([]byte, error) {
	if !k.hasPriv {
		return nil, ErrMissingKey
	}
	return append([]byte(nil), k.priv[:]...), nil
}

// x448DH implements DH over Curve448, via circl (the dependency
// kamune-org-kamune already pulls in for its own key exchange). It
// gives the engine a second elliptic-curve DH primitive at a higher
// security level than x25519/P-256, exercised the same way djbDH
// exercises golang.org/x/crypto/curve25519.
type x448DH struct{}

func (x448DH) Generate(r io.Reader) (KeyPair, error) {
	var kp x448KeyPair
	var seed x448.Key
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, err
	}
	kp.priv = seed
	x448.KeyGen(&kp.pub, &kp.priv)
	kp.hasPriv = true
	return &kp, nil
}

func (x448DH) ParsePublic(b []byte) (KeyPair, error) {
	if len(b) != x448.Size {
		return nil, fmt.Errorf("x448 dh: invalid public key size: %s", strconv.Itoa(len(b)))
	}
	var kp x448KeyPair
	copy(kp.pub[:], b)
	return &kp, nil
}

func (x448DH) ParsePrivate(b []byte) (KeyPair, error) {
	if len(b) != x448.Size {
		return nil, fmt.Errorf("x448 dh: invalid private key size: %s", strconv.Itoa(len(b)))
	}
	var kp x448KeyPair
	copy(kp.priv[:], b)
	x448.KeyGen(&kp.pub, &kp.priv)
	kp.hasPriv = true
	return &kp, nil
}

func (x448DH) SharedSecret(own KeyPair, peerPublic []byte) ([]byte, error) {
	kp, ok := own.(*x448KeyPair)
	if !ok || !kp.hasPriv {
		return nil, ErrMissingKey
	}
	if len(peerPublic) != x448.Size {
		return nil, fmt.Errorf("x448 dh: invalid public key size: %s", strconv.Itoa(len(peerPublic)))
	}
	var peer, shared x448.Key
	copy(peer[:], peerPublic)
	if !x448.Shared(&shared, &kp.priv, &peer) {
		return nil, fmt.Errorf("x448 dh: peer public key is low-order")
	}
	return shared[:], nil
}

// NewX448Suite builds the X448 + XChaCha20-Poly1305 + HKDF-SHA256
// suite.
func NewX448Suite(aeadInfo []byte) Suite {
	return Suite{
		KDF:  hkdfKDF{},
		DH:   x448DH{},
		AEAD: xchachaAEAD{info: aeadInfo},
	}
}
