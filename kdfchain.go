package ratchet

import "runtime"

// Chain is a stateful KDF chain: each Step folds an input into the
// current chain key and emits an output, replacing the chain key
// with the KDF's other output. Length counts the number of
// completed steps.
type Chain struct {
	kdf    KDF
	info   []byte
	key    []byte
	length int
}

// NewChain seeds a Chain with the given KDF, domain-separation info
// string, and initial chain key. seed is copied.
func NewChain(kdf KDF, info, seed []byte) *Chain {
	return &Chain{
		kdf:  kdf,
		info: info,
		key:  append([]byte(nil), seed...),
	}
}

// Length returns the number of completed Step calls.
func (c *Chain) Length() int {
	return c.length
}

// Step folds input into the chain key and returns the KDF output.
// The chain key is 32 bytes; the output size is requested via n.
func (c *Chain) Step(input []byte, n int) ([]byte, error) {
	out, err := c.kdf.Derive(c.key, c.info, input, 32+n)
	if err != nil {
		return nil, err
	}
	newKey, output := out[:32:32], out[32:32+n:32+n]
	wipe(c.key)
	c.key = newKey
	c.length++
	return output, nil
}

// Clone returns a deep copy, used to stage speculative mutation
// during Session.Decrypt.
func (c *Chain) Clone() *Chain {
	return &Chain{
		kdf:    c.kdf,
		info:   c.info,
		key:    append([]byte(nil), c.key...),
		length: c.length,
	}
}

// Zero erases the chain key. The Chain must not be used afterward.
func (c *Chain) Zero() {
	wipe(c.key)
	c.key = nil
}

// ConstChain is a Chain whose input is fixed at construction, so
// that each step is a deterministic function of the current chain
// key alone. This is the shape the symmetric-key ratchet's send and
// receive sub-chains need (§4.2): a 32-byte chain key step and a
// 32-byte message key output per step.
type ConstChain struct {
	Chain
	constInput []byte
}

// NewConstChain seeds a ConstChain with the given KDF, domain info,
// constant step input, and initial chain key.
func NewConstChain(kdf KDF, info, constInput, seed []byte) *ConstChain {
	return &ConstChain{
		Chain:      *NewChain(kdf, info, seed),
		constInput: append([]byte(nil), constInput...),
	}
}

// Next advances the chain by one step, returning a 32-byte message
// key.
func (c *ConstChain) Next() ([]byte, error) {
	return c.Step(c.constInput, 32)
}

// Clone returns a deep copy.
func (c *ConstChain) Clone() *ConstChain {
	return &ConstChain{
		Chain:      *c.Chain.Clone(),
		constInput: append([]byte(nil), c.constInput...),
	}
}

//go:noinline
func wipe(p []byte) {
	for i := range p {
		p[i] = 0
	}
	runtime.KeepAlive(p)
}
