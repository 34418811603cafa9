package ratchet

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Header field numbers used in the protobuf-wire encoding below.
const (
	headerFieldPublic protowire.Number = 1
	headerFieldPN     protowire.Number = 2
	headerFieldN      protowire.Number = 3
)

// Header accompanies every ciphertext (§3, §6). It carries the
// sender's current ratchet public key, the length of the sender's
// previous sending chain, and the sender's message index in the
// current chain.
type Header struct {
	Public []byte
	PN     int
	N      int
}

// Encode serializes h using protobuf wire encoding (varint +
// length-delimited fields, no .proto schema required): this is a
// bijective, self-delimiting representation, which is what §6
// requires of the wire format.
func (h Header) Encode() []byte {
	buf := protowire.AppendTag(nil, headerFieldPublic, protowire.BytesType)
	buf = protowire.AppendBytes(buf, h.Public)
	buf = protowire.AppendTag(buf, headerFieldPN, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(h.PN))
	buf = protowire.AppendTag(buf, headerFieldN, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(h.N))
	return buf
}

// DecodeHeader parses a Header produced by Header.Encode.
func DecodeHeader(data []byte) (Header, error) {
	var h Header
	var sawPublic, sawPN, sawN bool

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Header{}, fmt.Errorf("%w: bad tag", ErrMalformedHeader)
		}
		data = data[n:]

		switch {
		case num == headerFieldPublic && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Header{}, fmt.Errorf("%w: bad public field", ErrMalformedHeader)
			}
			h.Public = append([]byte(nil), v...)
			data = data[n:]
			sawPublic = true
		case num == headerFieldPN && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Header{}, fmt.Errorf("%w: bad pn field", ErrMalformedHeader)
			}
			h.PN = int(v)
			data = data[n:]
			sawPN = true
		case num == headerFieldN && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Header{}, fmt.Errorf("%w: bad n field", ErrMalformedHeader)
			}
			h.N = int(v)
			data = data[n:]
			sawN = true
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Header{}, fmt.Errorf("%w: unknown field", ErrMalformedHeader)
			}
			data = data[n:]
		}
	}

	if !sawPublic || !sawPN || !sawN {
		return Header{}, fmt.Errorf("%w: missing field", ErrMalformedHeader)
	}
	return h, nil
}

// MakeAD builds the associated data bound into each AEAD operation:
// a length-prefixed sessionAD followed by the encoded header. The
// length prefix makes the concatenation bijective over
// (sessionAD, header), as §4.5 requires.
func MakeAD(sessionAD []byte, h Header) []byte {
	buf := protowire.AppendVarint(nil, uint64(len(sessionAD)))
	buf = append(buf, sessionAD...)
	buf = append(buf, h.Encode()...)
	return buf
}
