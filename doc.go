// Package ratchet implements the Double Ratchet Algorithm.
//
// Overview
//
// What follows is a high-level overview of the Double Ratchet
// scheme, mostly paraphrased from the whitepaper [signal].
//
// Double Ratchet Algorithm
//
// The Double Ratchet Algorithm is comprised of two "ratchets"
// over three KDF chains. A ratchet is a construction where each
// step forward is computed with a one-way function, making it
// impossible to recover previous keys (forward secrecy).
//
// KDF Chains
//
// A KDF chain is a construction where part of the output of the
// KDF is used to key the next invocation, and the rest is used
// for some other purpose (message keys, chain keys, and so on).
// See Chain and ConstChain.
//
// In a session both parties keep three chains:
//
//	1. the root chain
//	2. the sending chain
//	3. the receiving chain
//
// Each party's sending chain matches the other's receiving chain
// and vice versa. The root chain is the same for both parties.
//
// Diffie-Hellman Ratchet
//
// Both parties hold their own ephemeral ratchet key pair. Each
// time the peer's ratchet public key changes, the session
// performs a DH step: it mixes a fresh Diffie-Hellman value into
// the root chain, producing new sending and/or receiving chain
// keys. This is what gives the scheme break-in recovery: once a
// DH step has occurred, compromising the current state does not
// reveal future message keys.
//
// Symmetric-Key Ratchet
//
// As each message is sent or received, the corresponding chain
// advances by one step. The output of that step is the message
// key used to seal or open exactly one message.
//
// Skipped Messages
//
// Because transport ordering is not guaranteed, a session may
// need to derive message keys for indices it has not yet seen
// and stash them for later out-of-order delivery. The
// SkippedKeyStore bounds how many such keys may be held at once.
//
// This package does not implement the initial key agreement
// (X3DH or equivalent), transport, identity, or any storage
// engine beyond the Serialize/Deserialize boundary; those are
// the caller's responsibility.
//
// References
//
//	[signal]: https://signal.org/docs/specifications/doubleratchet/doubleratchet.pdf
package ratchet
