package ratchet

import (
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"testing"

	mrand "github.com/ericlagergren/saferand"
)

var suiteCases = []struct {
	name string
	fn   func() Suite
}{
	{"DJB", func() Suite { return NewDJBSuite([]byte("test-aead")) }},
	{"NIST", func() Suite { return NewNISTSuite(elliptic.P256(), []byte("test-aead")) }},
	{"X448", func() Suite { return NewX448Suite([]byte("test-aead")) }},
	{"Ristretto", func() Suite { return NewRistrettoSuite([]byte("test-aead")) }},
}

func testConfig(suite Suite) Config {
	return Config{Suite: suite}
}

// newPair bootstraps a passively-bootstrapped session (bob) and an
// actively-bootstrapped session (alice) sharing the same initial
// secret, the way an X3DH handshake would hand them off.
func newPair(t *testing.T, suite Suite) (alice, bob *Session) {
	t.Helper()

	sk := make([]byte, 32)
	if _, err := rand.Read(sk); err != nil {
		t.Fatal(err)
	}

	bobKeyPair, err := suite.DH.Generate(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	bob, err = NewPassive(testConfig(suite), sk, bobKeyPair)
	if err != nil {
		t.Fatal(err)
	}
	alice, err = NewActive(testConfig(suite), sk, bobKeyPair.Public())
	if err != nil {
		t.Fatal(err)
	}
	return alice, bob
}

func TestRoundTripDuplex(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			alice, bob := newPair(t, tc.fn())

			send, recv := alice, bob
			const N = 100
			for i := 0; i < N; i++ {
				plaintext := make([]byte, 100)
				rand.Read(plaintext)

				h, ct, err := send.Encrypt(plaintext)
				if err != nil {
					t.Fatalf("#%d: encrypt: %v", i, err)
				}
				got, err := recv.Decrypt(h, ct)
				if err != nil {
					t.Fatalf("#%d: decrypt: %v", i, err)
				}
				if !hmac.Equal(plaintext, got) {
					t.Fatalf("#%d: mismatch", i)
				}
				send, recv = recv, send
			}

			if !alice.CanSend() || !bob.CanSend() {
				t.Fatal("expected both sides to be able to send after a duplex round")
			}
		})
	}
}

func TestEncryptBeforeReceiveFails(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			suite := tc.fn()
			sk := make([]byte, 32)
			own, err := suite.DH.Generate(rand.Reader)
			if err != nil {
				t.Fatal(err)
			}
			bob, err := NewPassive(testConfig(suite), sk, own)
			if err != nil {
				t.Fatal(err)
			}
			if bob.CanSend() {
				t.Fatal("passively-bootstrapped session should not be able to send yet")
			}
			if _, _, err := bob.Encrypt([]byte("hi")); err != ErrNotInitialized {
				t.Fatalf("got %v, want ErrNotInitialized", err)
			}
		})
	}
}

func TestOutOfOrder(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			alice, bob := newPair(t, tc.fn())

			const N = 100
			const window = DefaultMaxSkip + 1
			type sealed struct {
				h  Header
				ct []byte
				pt []byte
			}
			msgs := make([]sealed, N)
			for i := range msgs {
				pt := make([]byte, 64)
				rand.Read(pt)
				h, ct, err := alice.Encrypt(pt)
				if err != nil {
					t.Fatalf("#%d: encrypt: %v", i, err)
				}
				msgs[i] = sealed{h: h, ct: ct, pt: pt}
			}

			// Shuffle within windows of MaxSkip+1 consecutive messages
			// rather than across the whole stream: the skipped-key
			// store only tolerates a gap of up to MaxSkip between the
			// receiving chain's current index and an out-of-order
			// arrival (spec §8), and the default MaxSkip here is 5,
			// much smaller than N.
			for start := 0; start < len(msgs); start += window {
				end := start + window
				if end > len(msgs) {
					end = len(msgs)
				}
				chunk := msgs[start:end]
				mrand.Shuffle(len(chunk), func(i, j int) {
					chunk[i], chunk[j] = chunk[j], chunk[i]
				})
			}

			for i, m := range msgs {
				got, err := bob.Decrypt(m.h, m.ct)
				if err != nil {
					t.Fatalf("#%d: decrypt: %v", i, err)
				}
				if !hmac.Equal(m.pt, got) {
					t.Fatalf("#%d: mismatch", i)
				}
			}
		})
	}
}

func TestSkipOverflow(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			suite := tc.fn()
			cfg := testConfig(suite)
			skip := 5
			cfg.MaxSkip = &skip

			sk := make([]byte, 32)
			bobKeyPair, err := suite.DH.Generate(rand.Reader)
			if err != nil {
				t.Fatal(err)
			}
			bob, err := NewPassive(cfg, sk, bobKeyPair)
			if err != nil {
				t.Fatal(err)
			}
			alice, err := NewActive(cfg, sk, bobKeyPair.Public())
			if err != nil {
				t.Fatal(err)
			}

			var last struct {
				h  Header
				ct []byte
			}
			for i := 0; i < 7; i++ {
				h, ct, err := alice.Encrypt([]byte("discarded"))
				if err != nil {
					t.Fatalf("#%d: encrypt: %v", i, err)
				}
				last.h, last.ct = h, ct
			}

			before, err := bob.Serialize()
			if err != nil {
				t.Fatal(err)
			}

			if _, err := bob.Decrypt(last.h, last.ct); !errors.Is(err, ErrTooManySavedMessageKeys) {
				t.Fatalf("got %v, want ErrTooManySavedMessageKeys", err)
			}

			after, err := bob.Serialize()
			if err != nil {
				t.Fatal(err)
			}
			if string(before) != string(after) {
				t.Fatal("session state changed after a failed decrypt")
			}
		})
	}
}

func TestMaxSkipZeroDisallowsSkipping(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			suite := tc.fn()
			cfg := testConfig(suite)
			zero := 0
			cfg.MaxSkip = &zero

			sk := make([]byte, 32)
			bobKeyPair, err := suite.DH.Generate(rand.Reader)
			if err != nil {
				t.Fatal(err)
			}
			bob, err := NewPassive(cfg, sk, bobKeyPair)
			if err != nil {
				t.Fatal(err)
			}
			alice, err := NewActive(cfg, sk, bobKeyPair.Public())
			if err != nil {
				t.Fatal(err)
			}

			// In order, with MaxSkip set to zero, messages still
			// decrypt: no key ever needs to be stashed.
			h0, ct0, err := alice.Encrypt([]byte("first"))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := bob.Decrypt(h0, ct0); err != nil {
				t.Fatalf("in-order decrypt with MaxSkip=0 failed: %v", err)
			}

			// A single skipped message, though, must be refused
			// outright rather than silently falling back to the
			// package default bound.
			if _, _, err := alice.Encrypt([]byte("skipped")); err != nil {
				t.Fatal(err)
			}
			h2, ct2, err := alice.Encrypt([]byte("out of order"))
			if err != nil {
				t.Fatal(err)
			}

			if _, err := bob.Decrypt(h2, ct2); !errors.Is(err, ErrTooManySavedMessageKeys) {
				t.Fatalf("got %v, want ErrTooManySavedMessageKeys", err)
			}
		})
	}
}

func TestTamperDetection(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			alice, bob := newPair(t, tc.fn())

			h, ct, err := alice.Encrypt([]byte("hello bob"))
			if err != nil {
				t.Fatal(err)
			}

			tampered := append([]byte(nil), ct...)
			tampered[0] ^= 0xff

			before, err := bob.Serialize()
			if err != nil {
				t.Fatal(err)
			}
			if _, err := bob.Decrypt(h, tampered); !errors.Is(err, ErrAuthenticationFailure) {
				t.Fatalf("got %v, want ErrAuthenticationFailure", err)
			}
			after, err := bob.Serialize()
			if err != nil {
				t.Fatal(err)
			}
			if string(before) != string(after) {
				t.Fatal("session state changed after a failed decrypt")
			}

			got, err := bob.Decrypt(h, ct)
			if err != nil {
				t.Fatalf("decrypt of untampered message failed: %v", err)
			}
			if string(got) != "hello bob" {
				t.Fatalf("got %q", got)
			}
		})
	}
}

func TestSerializeResume(t *testing.T) {
	for _, tc := range suiteCases {
		t.Run(tc.name, func(t *testing.T) {
			suite := tc.fn()
			alice, bob := newPair(t, suite)

			send, recv := alice, bob
			const N = 20
			for i := 0; i < N; i++ {
				pt := make([]byte, 32)
				rand.Read(pt)
				h, ct, err := send.Encrypt(pt)
				if err != nil {
					t.Fatal(err)
				}
				if _, err := recv.Decrypt(h, ct); err != nil {
					t.Fatal(err)
				}
				send, recv = recv, send
			}

			aliceDoc, err := alice.Serialize()
			if err != nil {
				t.Fatal(err)
			}
			bobDoc, err := bob.Serialize()
			if err != nil {
				t.Fatal(err)
			}

			alice2, err := Deserialize(aliceDoc, testConfig(suite))
			if err != nil {
				t.Fatal(err)
			}
			bob2, err := Deserialize(bobDoc, testConfig(suite))
			if err != nil {
				t.Fatal(err)
			}

			send, recv = alice2, bob2
			for i := 0; i < N; i++ {
				pt := make([]byte, 32)
				rand.Read(pt)
				h, ct, err := send.Encrypt(pt)
				if err != nil {
					t.Fatalf("#%d: encrypt: %v", i, err)
				}
				got, err := recv.Decrypt(h, ct)
				if err != nil {
					t.Fatalf("#%d: decrypt: %v", i, err)
				}
				if !hmac.Equal(pt, got) {
					t.Fatalf("#%d: mismatch", i)
				}
				send, recv = recv, send
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Public: []byte{1, 2, 3, 4}, PN: 7, N: 1009}
	decoded, err := DecodeHeader(h.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.PN != h.PN || decoded.N != h.N || !hmac.Equal(decoded.Public, h.Public) {
		t.Fatalf("got %+v, want %+v", decoded, h)
	}
}

func TestMakeADBijective(t *testing.T) {
	a := MakeAD([]byte("session"), Header{Public: []byte("pub"), PN: 1, N: 2})
	b := MakeAD([]byte("sess"), Header{Public: []byte("ionpub"), PN: 1, N: 2})
	if string(a) == string(b) {
		t.Fatal("MakeAD must not collide across different (sessionAD, header) splits")
	}
}
