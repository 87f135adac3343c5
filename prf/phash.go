package prf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding"
	"encoding/binary"

	"github.com/saberistic/tlsn/utils"
)

// OuterHashState is the SHA-256 compression state after absorbing the HMAC
// outer pad keyed on a secret the Follower never sees directly (the master
// secret, or later the session-key-expansion secret derived from it). It
// only ever arrives as a circuit output (c1, c2) and is only ever consumed
// as a circuit input (c2, c3) or as the seed for finishHash below; it never
// crosses the Channel.
type OuterHashState [sha256.Size]byte

// sha256BlockMagic is the prefix encoding/gob-style sha256.digest.MarshalBinary
// prepends to a marshaled state; UnmarshalBinary requires it verbatim.
var sha256BlockMagic = []byte("sha\x03")

// finishHash resumes a SHA-256 digest from a compression state representing
// the midstate after exactly one 64-byte block has been absorbed, and folds
// in data as though it were the continuation of that block stream. This is
// how the outer half of HMAC-SHA-256 is completed without either party ever
// materializing the HMAC key: the key-dependent first block is absorbed
// once, out of band inside a garbled circuit, producing state; every
// subsequent step touches only state plus public data.
//
// state must be the digest's true one-block chaining value (see
// utils.SHA256ChainingValue; outerHashState/innerHashState below produce it
// for tests, and the reference mock executor gets it from
// utils.HMACPadState) — NOT sha256.Sum256 of the
// block, which runs a second compression over SHA-256's length-padding
// block and would resume from the wrong state entirely.
func finishHash(state OuterHashState, data []byte) [sha256.Size]byte {
	digest := sha256.New()
	unmarshaler, ok := digest.(encoding.BinaryUnmarshaler)
	if !ok {
		// sha256.New()'s concrete type has implemented
		// encoding.BinaryUnmarshaler since Go 1.3; this would only trip if
		// the standard library changed its internal representation.
		panic("prf: sha256 digest does not implement encoding.BinaryUnmarshaler")
	}

	marshaled := make([]byte, 0, len(sha256BlockMagic)+sha256.Size+sha256.BlockSize+8)
	marshaled = append(marshaled, sha256BlockMagic...)
	marshaled = append(marshaled, state[:]...)
	// the bytes of the already-processed block are never consulted once
	// the processed-byte counter below is set to a full block.
	marshaled = append(marshaled, make([]byte, sha256.BlockSize)...)
	var processed [8]byte
	binary.BigEndian.PutUint64(processed[:], uint64(sha256.BlockSize))
	marshaled = append(marshaled, processed[:]...)

	if err := unmarshaler.UnmarshalBinary(marshaled); err != nil {
		panic("prf: failed to resume sha256 state: " + err.Error())
	}
	digest.Write(data)

	var out [sha256.Size]byte
	copy(out[:], digest.Sum(nil))
	return out
}

// outerHashState computes the compression state after absorbing the HMAC
// outer pad keyed on secret, i.e. the SHA-256 midstate of (keyBlock XOR
// opad). It is only ever called by tests, which stand in for the secure
// circuit that would otherwise compute it without exposing secret; the
// reference mock garbled-circuit executor calls utils.HMACPadState directly.
func outerHashState(secret []byte) OuterHashState {
	return OuterHashState(utils.HMACPadState(secret, 0x5c))
}

// innerHashState is the inner-pad analogue of outerHashState.
func innerHashState(secret []byte) OuterHashState {
	return OuterHashState(utils.HMACPadState(secret, 0x36))
}

// pHash is the reference TLS 1.2 P_hash(secret, seed) construction used by
// tests as ground truth: the same
// value any conformant two-party computation of finishHash-chained rounds
// must reproduce.
func pHash(secret, seed []byte, length int) []byte {
	mac := hmac.New(sha256.New, secret)
	a := append([]byte{}, seed...)
	out := make([]byte, 0, length+sha256.Size)
	for len(out) < length {
		mac.Reset()
		mac.Write(a)
		a = mac.Sum(nil)

		mac.Reset()
		mac.Write(a)
		mac.Write(seed)
		out = append(out, mac.Sum(nil)...)
	}
	return out[:length]
}
