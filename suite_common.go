package ratchet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// hkdfKDF derives output bytes with HKDF-SHA256, salted by the
// current chain key and labeled with info: one call produces both
// the next chain key and the requested output (§4.1). It has no
// group-specific state, so every suite in this package shares it.
type hkdfKDF struct{}

func (hkdfKDF) Derive(key, info, input []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	r := hkdf.New(sha256.New, input, key, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf kdf: %w", err)
	}
	return out, nil
}

// xchachaAEAD derives a 256-bit XChaCha20-Poly1305 key and 192-bit
// nonce from the message key via HKDF, labeled with info.
type xchachaAEAD struct {
	info []byte
}

func (a xchachaAEAD) derive(mk []byte) (key, nonce []byte, err error) {
	const (
		K = chacha20poly1305.KeySize
		N = chacha20poly1305.NonceSizeX
	)
	buf := make([]byte, K+N)
	r := hkdf.New(sha256.New, mk, nil, a.info)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}
	return buf[0:K:K], buf[K : K+N : K+N], nil
}

func (a xchachaAEAD) Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	k, nonce, err := a.derive(key)
	if err != nil {
		return nil, err
	}
	defer wipe(k)
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

func (a xchachaAEAD) Open(key, ciphertext, additionalData []byte) ([]byte, error) {
	k, nonce, err := a.derive(key)
	if err != nil {
		return nil, err
	}
	defer wipe(k)
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, additionalData)
}

// gcmAEAD derives a 256-bit AES-GCM key and 96-bit nonce via HKDF,
// labeled with info.
type gcmAEAD struct {
	info []byte
}

func (a gcmAEAD) derive(mk []byte) (key, nonce []byte, err error) {
	buf := make([]byte, 32+12)
	r := hkdf.New(sha256.New, mk, nil, a.info)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}
	return buf[0:32:32], buf[32 : 32+12 : 32+12], nil
}

func (a gcmAEAD) Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	k, nonce, err := a.derive(key)
	if err != nil {
		return nil, err
	}
	defer wipe(k)
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

func (a gcmAEAD) Open(key, ciphertext, additionalData []byte) ([]byte, error) {
	k, nonce, err := a.derive(key)
	if err != nil {
		return nil, err
	}
	defer wipe(k)
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, additionalData)
}
