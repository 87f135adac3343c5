// Package utils collects the small cryptographic and byte-wrangling helpers
// shared across the notary packages, carried over from the original notary
// session implementation and trimmed to what the notary signing key and the
// mock garbled-circuit executor actually use.
package utils

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding"
	"encoding/binary"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/salsa20/salsa"
)

func Sha256(data []byte) []byte {
	ret := sha256.Sum256(data)
	return ret[:]
}

// sha256BinaryMagicLen is the length of the prefix encoding/gob-style
// sha256.digest.MarshalBinary prepends to a marshaled state.
const sha256BinaryMagicLen = 4

// SHA256ChainingValue returns the SHA-256 compression state after absorbing
// exactly one 64-byte block from the zero IV, i.e. compress(IV, block).
//
// This is NOT the same as sha256.Sum256(block[:]): Sum256 additionally runs
// SHA-256's length-padding block through a second compression and returns
// compress(compress(IV, block), padBlock). The one-block chaining value is
// only obtainable by writing the block into a real digest and reading back
// its internal state via encoding.BinaryMarshaler, which is what this
// function does.
func SHA256ChainingValue(block [sha256.BlockSize]byte) [sha256.Size]byte {
	digest := sha256.New()
	digest.Write(block[:])

	marshaler, ok := digest.(encoding.BinaryMarshaler)
	if !ok {
		// sha256.New()'s concrete type has implemented
		// encoding.BinaryMarshaler since Go 1.3; this would only trip if the
		// standard library changed its internal representation.
		panic("utils: sha256 digest does not implement encoding.BinaryMarshaler")
	}
	marshaled, err := marshaler.MarshalBinary()
	if err != nil {
		panic("utils: marshaling sha256 state: " + err.Error())
	}

	var state [sha256.Size]byte
	copy(state[:], marshaled[sha256BinaryMagicLen:sha256BinaryMagicLen+sha256.Size])
	return state
}

// HMACPadState folds secret into a single SHA-256 block (hashing it down
// first if it's longer than one block), XORs in pad (0x5c for HMAC's outer
// pad, 0x36 for the inner pad), and returns the chaining value after
// absorbing that single padded key block. This is the forged-midstate
// building block both the PRF core's finishHash resume mechanic and the
// reference garbled-circuit mock use to complete HMAC-SHA-256 without ever
// materializing the full MAC computation over the secret in one place.
func HMACPadState(secret []byte, pad byte) [sha256.Size]byte {
	block := hmacKeyBlock(secret)
	var padded [sha256.BlockSize]byte
	for i, b := range block {
		padded[i] = b ^ pad
	}
	return SHA256ChainingValue(padded)
}

func hmacKeyBlock(secret []byte) []byte {
	if len(secret) > sha256.BlockSize {
		sum := sha256.Sum256(secret)
		secret = sum[:]
	}
	block := make([]byte, sha256.BlockSize)
	copy(block, secret)
	return block
}

// Generichash ports sodium.crypto_generichash; used by the mock
// garbled-circuit executor to derive deterministic, non-secure wire labels.
func Generichash(length int, msg []byte) []byte {
	h, err := blake2b.New(length, nil)
	if err != nil {
		panic("error in generichash")
	}
	if _, err := h.Write(msg); err != nil {
		panic("error in generichash")
	}
	return h.Sum(nil)
}

func XorBytes(a, b []byte) []byte {
	if len(a) != len(b) {
		panic("len(a) != len(b)")
	}
	c := make([]byte, len(a))
	for i := range a {
		c[i] = a[i] ^ b[i]
	}
	return c
}

// randomOracle uses a fixed-key Salsa20 as a random permutator. Instead of
// the nonce/counter, we feed the data that needs to be permuted.
func randomOracle(msg []byte, t uint32) []byte {
	if len(msg) != 16 {
		panic(len(msg) != 16)
	}
	fixedKey := [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
		20, 21, 22, 23, 24, 25, 26, 27, 28, 0, 0, 0, 0}
	tBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(tBytes, t)
	copy(fixedKey[28:32], tBytes)
	out := make([]byte, 16)
	var msgArray [16]byte
	copy(msgArray[:], msg)
	salsa.XORKeyStream(out, out, &msgArray, &fixedKey)
	return out
}

// EncryptLabel and DecryptLabel wrap the mock executor's 16-byte wire-label
// permutation; Decrypt is its own inverse since it is built from XOR.
func EncryptLabel(a, b []byte, t uint32, m []byte) []byte {
	a2 := make([]byte, 16)
	copy(a2, a)
	leastbyte := a2[0:1]
	first := append([]byte{}, leastbyte...)
	copy(a2, a2[1:15])
	copy(a2[14:15], first)

	b4 := make([]byte, 16)
	copy(b4, b)
	leastbytes := append([]byte{}, b4[0:2]...)
	copy(b4, b4[2:15])
	copy(b4[13:15], leastbytes)

	k := XorBytes(a2, b4)
	ro := randomOracle(k, t)
	mXorK := XorBytes(m, k)
	return XorBytes(mXorK, ro)
}

func DecryptLabel(a, b []byte, t uint32, m []byte) []byte {
	return EncryptLabel(a, b, t, m)
}

// Concat concatenates slices of bytes into a new slice with a new
// underlying array.
func Concat(slices ...[]byte) []byte {
	totalSize := 0
	for _, v := range slices {
		totalSize += len(v)
	}
	newSlice := make([]byte, totalSize)
	copiedSoFar := 0
	for _, v := range slices {
		copy(newSlice[copiedSoFar:copiedSoFar+len(v)], v)
		copiedSoFar += len(v)
	}
	return newSlice
}

func ECDSAPubkeyToPEM(key *ecdsa.PublicKey) []byte {
	derBytes, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		fmt.Println(err)
		panic("x509.MarshalPKIXPublicKey")
	}
	block := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}
	return pem.EncodeToMemory(block)
}
