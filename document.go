package ratchet

import (
	"encoding/json"
	"fmt"
)

// Document is the serializable form of a Session (§6). Byte slices
// are base64-encoded by encoding/json; unknown fields in a document
// produced by a newer version of this package are silently ignored
// by json.Unmarshal, which is this module's documented
// forward-compatibility policy.
type Document struct {
	RootKey    []byte `json:"root_key"`
	RootLength int    `json:"root_length"`

	SendChainKey []byte `json:"send_chain_key,omitempty"`
	SendLength   int    `json:"send_length,omitempty"`
	RecvChainKey []byte `json:"recv_chain_key,omitempty"`
	RecvLength   int    `json:"recv_length,omitempty"`

	Ns int `json:"ns"`
	Nr int `json:"nr"`
	PN int `json:"pn"`

	OwnPrivate  []byte `json:"own_private"`
	OwnPublic   []byte `json:"own_public"`
	OtherPublic []byte `json:"other_public,omitempty"`

	MaxSkip   int            `json:"max_skip"`
	SessionAD []byte         `json:"session_ad,omitempty"`
	Skipped   []skippedEntry `json:"skipped,omitempty"`
}

// Serialize captures the Session at a quiescent point into an opaque
// document. The caller is responsible for protecting the resulting
// bytes at rest: this package performs no encryption of its own
// state (§9).
func (s *Session) Serialize() ([]byte, error) {
	priv, err := s.own.Bytes()
	if err != nil {
		return nil, fmt.Errorf("ratchet: serializing own key pair: %w", err)
	}

	doc := Document{
		RootKey:     s.root.chain.key,
		RootLength:  s.root.chain.length,
		Ns:          s.sym.Ns,
		Nr:          s.sym.Nr,
		PN:          s.sym.PN,
		OwnPrivate:  priv,
		OwnPublic:   s.own.Public(),
		OtherPublic: s.otherPublic,
		MaxSkip:     s.skipped.maxSkip,
		SessionAD:   s.cfg.SessionAD,
		Skipped:     s.skipped.entries(),
	}
	if s.sym.send != nil {
		doc.SendChainKey = s.sym.send.key
		doc.SendLength = s.sym.send.length
	}
	if s.sym.recv != nil {
		doc.RecvChainKey = s.sym.recv.key
		doc.RecvLength = s.sym.recv.length
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ratchet: marshaling document: %w", err)
	}
	return data, nil
}

// Deserialize restores a Session from a document produced by
// Serialize. cfg supplies the suite of primitives and the KDF
// domain-separation labels; the skipped-key bound and session
// associated data travel with the document itself, since they are
// part of the session's own history rather than the caller's
// ambient configuration.
func Deserialize(data []byte, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	own, err := cfg.Suite.DH.ParsePrivate(doc.OwnPrivate)
	if err != nil {
		return nil, fmt.Errorf("%w: own key pair: %v", ErrMalformedDocument, err)
	}

	root := &RootChain{chain: &Chain{
		kdf:    cfg.Suite.KDF,
		info:   cfg.RootKDFInfo,
		key:    doc.RootKey,
		length: doc.RootLength,
	}}

	sym := &SymmetricRatchet{Ns: doc.Ns, Nr: doc.Nr, PN: doc.PN}
	if doc.SendChainKey != nil {
		sym.send = &ConstChain{
			Chain: Chain{
				kdf:    cfg.Suite.KDF,
				info:   cfg.SubChainKDFInfo,
				key:    doc.SendChainKey,
				length: doc.SendLength,
			},
			constInput: cfg.SubChainConstInput,
		}
	}
	if doc.RecvChainKey != nil {
		sym.recv = &ConstChain{
			Chain: Chain{
				kdf:    cfg.Suite.KDF,
				info:   cfg.SubChainKDFInfo,
				key:    doc.RecvChainKey,
				length: doc.RecvLength,
			},
			constInput: cfg.SubChainConstInput,
		}
	}

	// doc.MaxSkip is always the concrete bound Serialize resolved at
	// capture time (possibly zero, meaning no skip tolerance), never
	// an "unset" marker, so it is used as-is rather than falling back
	// to cfg.maxSkip() — a document's own history overrides whatever
	// the caller's Config supplies on resume.
	cfg.SessionAD = doc.SessionAD

	return &Session{
		cfg:         cfg,
		root:        root,
		sym:         sym,
		own:         own,
		otherPublic: doc.OtherPublic,
		skipped:     skippedFromEntries(doc.MaxSkip, doc.Skipped),
	}, nil
}
