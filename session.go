package ratchet

import (
	"bytes"
	"crypto/rand"
	"fmt"
)

// Session is a Double Ratchet engine instance: one side of an
// asynchronous, forward-secret, self-healing conversation (§4.5).
//
// A Session is a single-threaded stateful object (§5): no method is
// safe to call concurrently with another call on the same Session.
type Session struct {
	cfg Config

	root *RootChain
	sym  *SymmetricRatchet

	own         KeyPair
	otherPublic []byte

	skipped *SkippedKeyStore
}

// NewActive creates a Session for the party that initiates
// communication knowing the peer's first ratchet public key (the
// "Alice" role in X3DH terms). sk is the shared secret established
// by the external key agreement. The returned Session can send
// immediately but cannot receive until the peer has processed at
// least one sent message and replied.
func NewActive(cfg Config, sk, otherPub []byte) (*Session, error) {
	cfg = cfg.withDefaults()

	own, err := cfg.Suite.DH.Generate(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ratchet: generating key pair: %w", err)
	}
	dh, err := cfg.Suite.DH.SharedSecret(own, otherPub)
	if err != nil {
		return nil, fmt.Errorf("ratchet: initial dh: %w", err)
	}

	root := NewRootChain(cfg.Suite.KDF, cfg.RootKDFInfo, sk)
	sendSeed, err := root.Step(dh)
	if err != nil {
		return nil, fmt.Errorf("ratchet: seeding sending chain: %w", err)
	}

	sym := &SymmetricRatchet{}
	sym.ReplaceSend(cfg.Suite.KDF, cfg.SubChainKDFInfo, cfg.SubChainConstInput, sendSeed)

	return &Session{
		cfg:         cfg,
		root:        root,
		sym:         sym,
		own:         own,
		otherPublic: append([]byte(nil), otherPub...),
		skipped:     NewSkippedKeyStore(cfg.maxSkip()),
	}, nil
}

// NewPassive creates a Session for the party that waits to receive
// the first message (the "Bob" role in X3DH terms). sk is the shared
// secret established by the external key agreement; own is this
// party's own first ratchet key pair, which must hold a private
// half. The returned Session cannot send until it has received the
// first message, which triggers the first DH-ratchet step and (per
// §9's eager-rotation decision) immediately rotates a fresh sending
// chain into place.
func NewPassive(cfg Config, sk []byte, own KeyPair) (*Session, error) {
	cfg = cfg.withDefaults()

	if _, err := own.Bytes(); err != nil {
		return nil, fmt.Errorf("ratchet: passive bootstrap: %w", ErrMissingKey)
	}

	return &Session{
		cfg:     cfg,
		root:    NewRootChain(cfg.Suite.KDF, cfg.RootKDFInfo, sk),
		sym:     &SymmetricRatchet{},
		own:     own,
		skipped: NewSkippedKeyStore(cfg.maxSkip()),
	}, nil
}

// CanSend reports whether the sending sub-chain is seeded.
func (s *Session) CanSend() bool {
	return s.sym.CanSend()
}

// CanRecv reports whether the session can process an incoming
// message: either the receiving sub-chain is already seeded, or the
// peer's public key is still unknown and a DH step can bootstrap it
// from the incoming header.
func (s *Session) CanRecv() bool {
	return s.sym.CanRecv() || s.otherPublic == nil
}

// Encrypt derives the next message key from the sending chain,
// builds the header, and AEAD-seals plaintext with the header (and
// the session's associated data) bound in (§4.5).
func (s *Session) Encrypt(plaintext []byte) (Header, []byte, error) {
	if !s.sym.CanSend() {
		return Header{}, nil, ErrNotInitialized
	}

	mk, n, err := s.sym.StepSend()
	if err != nil {
		return Header{}, nil, fmt.Errorf("ratchet: stepping sending chain: %w", err)
	}
	defer wipe(mk)

	h := Header{Public: s.own.Public(), PN: s.sym.PN, N: n}
	ct, err := s.cfg.Suite.AEAD.Seal(mk, plaintext, MakeAD(s.cfg.SessionAD, h))
	if err != nil {
		return Header{}, nil, fmt.Errorf("ratchet: sealing message: %w", err)
	}
	return h, ct, nil
}

// Decrypt opens a message sealed by the peer's Encrypt, advancing
// whichever chains need to advance to reach it: the skipped-key
// store first, then (if the header carries a new ratchet public key)
// a DH-ratchet step, then the receiving chain up to the header's
// index (§4.5).
//
// Decrypt is atomic: on any error, including
// ErrTooManySavedMessageKeys and ErrAuthenticationFailure, the
// Session's observable state is unchanged. This is achieved by
// running the whole algorithm against a scratch copy and only
// swapping it in once every step has succeeded.
func (s *Session) Decrypt(h Header, ciphertext []byte) ([]byte, error) {
	scratch := s.clone()
	plaintext, err := scratch.decryptInPlace(h, ciphertext)
	if err != nil {
		return nil, err
	}
	s.commit(scratch)
	return plaintext, nil
}

func (s *Session) decryptInPlace(h Header, ciphertext []byte) ([]byte, error) {
	ad := MakeAD(s.cfg.SessionAD, h)

	if mk, ok := s.skipped.Take(h.Public, h.N); ok {
		plaintext, err := s.cfg.Suite.AEAD.Open(mk, ciphertext, ad)
		wipe(mk)
		if err != nil {
			return nil, fmt.Errorf("ratchet: opening message: %w", ErrAuthenticationFailure)
		}
		return plaintext, nil
	}

	isNewPublic := s.otherPublic == nil || !bytes.Equal(h.Public, s.otherPublic)
	if isNewPublic {
		if s.sym.CanRecv() {
			if err := s.skipUntil(h.PN); err != nil {
				return nil, err
			}
		}
		if err := s.dhRatchetStep(h.Public); err != nil {
			return nil, fmt.Errorf("ratchet: dh step: %w", err)
		}
	}

	if err := s.skipUntil(h.N); err != nil {
		return nil, err
	}

	mk, _, err := s.sym.StepRecv()
	if err != nil {
		return nil, fmt.Errorf("ratchet: stepping receiving chain: %w", err)
	}
	plaintext, err := s.cfg.Suite.AEAD.Open(mk, ciphertext, ad)
	wipe(mk)
	if err != nil {
		return nil, fmt.Errorf("ratchet: opening message: %w", ErrAuthenticationFailure)
	}
	return plaintext, nil
}

// skipUntil advances the receiving chain from its current index up
// to (not including) until, storing each intermediate message key
// under the current peer public key.
func (s *Session) skipUntil(until int) error {
	for s.sym.Nr < until {
		mk, n, err := s.sym.StepRecv()
		if err != nil {
			return fmt.Errorf("ratchet: stepping receiving chain: %w", err)
		}
		if err := s.skipped.Put(s.otherPublic, n, mk); err != nil {
			wipe(mk)
			return err
		}
	}
	return nil
}

// dhRatchetStep performs the DH-ratchet step from §4.5.2b: it seeds
// a new receiving chain from the peer's new public key, then
// eagerly rotates a new sending chain too, generating a fresh own
// key pair in the process. Both rotations fold into the same root
// chain, in that order.
func (s *Session) dhRatchetStep(peerPublic []byte) error {
	dhRecv, err := s.cfg.Suite.DH.SharedSecret(s.own, peerPublic)
	if err != nil {
		return err
	}
	recvSeed, err := s.root.Step(dhRecv)
	if err != nil {
		return err
	}
	s.sym.ReplaceRecv(s.cfg.Suite.KDF, s.cfg.SubChainKDFInfo, s.cfg.SubChainConstInput, recvSeed)
	s.otherPublic = append([]byte(nil), peerPublic...)

	newOwn, err := s.cfg.Suite.DH.Generate(rand.Reader)
	if err != nil {
		return err
	}
	dhSend, err := s.cfg.Suite.DH.SharedSecret(newOwn, peerPublic)
	if err != nil {
		return err
	}
	sendSeed, err := s.root.Step(dhSend)
	if err != nil {
		return err
	}
	s.own = newOwn
	s.sym.ReplaceSend(s.cfg.Suite.KDF, s.cfg.SubChainKDFInfo, s.cfg.SubChainConstInput, sendSeed)
	return nil
}

// clone returns a deep copy of the Session for Decrypt's staged,
// all-or-nothing mutation.
func (s *Session) clone() *Session {
	return &Session{
		cfg:         s.cfg,
		root:        s.root.Clone(),
		sym:         s.sym.Clone(),
		own:         s.own,
		otherPublic: append([]byte(nil), s.otherPublic...),
		skipped:     s.skipped.Clone(),
	}
}

// commit swaps scratch's fields into s, erasing the superseded chain
// keys and skipped message keys. The superseded own key pair is
// dropped without being erased.
func (s *Session) commit(scratch *Session) {
	s.root.Zero()
	s.sym.Zero()
	for _, mk := range s.skipped.keys {
		wipe(mk)
	}
	s.root = scratch.root
	s.sym = scratch.sym
	s.own = scratch.own
	s.otherPublic = scratch.otherPublic
	s.skipped = scratch.skipped
}
