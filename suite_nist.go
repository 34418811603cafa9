package ratchet

import (
	"crypto/elliptic"
	"fmt"
	"io"
	"strconv"
)

type nistKeyPair struct {
	curve   elliptic.Curve
	priv    []byte
	pub     []byte
	hasPriv bool
}

func (k *nistKeyPair) Public() []byte {
	return append([]byte(nil), k.pub...)
}

func (k *nistKeyPair) Bytes() ([]byte, error) {
	if !k.hasPriv {
		return nil, ErrMissingKey
	}
	return append([]byte(nil), k.priv...), nil
}

// nistDH implements DH over the NIST curve given to NewNISTSuite, kept
// from the teacher's nist.go almost verbatim: only the surrounding
// interface shape changed. No third-party ECDH convenience wrapper
// for NIST curves appears anywhere in the retrieved pack, so this
// suite stays on crypto/elliptic and crypto/cipher, same as the
// teacher (see DESIGN.md).
type nistDH struct {
	curve elliptic.Curve
}

func (n nistDH) privLen() int { return (n.curve.Params().BitSize + 7) / 8 }
func (n nistDH) pubLen() int  { return 1 + 2*n.privLen() }

func (n nistDH) Generate(r io.Reader) (KeyPair, error) {
	priv, x, y, err := elliptic.GenerateKey(n.curve, r)
	if err != nil {
		return nil, err
	}
	pub := elliptic.Marshal(n.curve, x, y)
	return &nistKeyPair{curve: n.curve, priv: priv, pub: pub, hasPriv: true}, nil
}

func (n nistDH) ParsePublic(b []byte) (KeyPair, error) {
	if len(b) != n.pubLen() {
		return nil, fmt.Errorf("nist dh: invalid public key size: %s", strconv.Itoa(len(b)))
	}
	return &nistKeyPair{curve: n.curve, pub: append([]byte(nil), b...)}, nil
}

func (n nistDH) ParsePrivate(b []byte) (KeyPair, error) {
	if len(b) != n.privLen() {
		return nil, fmt.Errorf("nist dh: invalid private key size: %s", strconv.Itoa(len(b)))
	}
	x, y := n.curve.ScalarBaseMult(b)
	pub := elliptic.Marshal(n.curve, x, y)
	return &nistKeyPair{curve: n.curve, priv: append([]byte(nil), b...), pub: pub, hasPriv: true}, nil
}

func (n nistDH) SharedSecret(own KeyPair, peerPublic []byte) ([]byte, error) {
	kp, ok := own.(*nistKeyPair)
	if !ok || !kp.hasPriv {
		return nil, ErrMissingKey
	}
	if len(peerPublic) != n.pubLen() {
		return nil, fmt.Errorf("nist dh: invalid public key size: %s", strconv.Itoa(len(peerPublic)))
	}
	x, y := elliptic.Unmarshal(n.curve, peerPublic)
	if x == nil {
		return nil, fmt.Errorf("nist dh: invalid public key")
	}
	secret, _ := n.curve.ScalarMult(x, y, kp.priv)
	dh := make([]byte, n.privLen())
	secret.FillBytes(dh)
	return dh, nil
}

// NewNISTSuite builds a NIST-curve + AES-256-GCM + HKDF-SHA256
// suite, for interop with deployments that require a FIPS-approved
// curve over x25519.
func NewNISTSuite(curve elliptic.Curve, aeadInfo []byte) Suite {
	return Suite{
		KDF:  hkdfKDF{},
		DH:   nistDH{curve: curve},
		AEAD: gcmAEAD{info: aeadInfo},
	}
}
