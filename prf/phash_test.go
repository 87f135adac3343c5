package prf

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"
)

// finishHash is only ever used to complete the *outer* half of an HMAC
// whose *inner* half (H(secret⊕ipad || msg)) was already computed
// elsewhere. This test checks that mechanic against crypto/hmac directly:
// HMAC(secret, msg) == finishHash(outerHashState(secret), H(secret⊕ipad || msg)).
func TestFinishHashMatchesHMAC(t *testing.T) {
	secret := []byte("a 48-byte master secret padded to test length!!!")
	msg := []byte("client finished verify data seed")

	want := hmac.New(sha256.New, secret)
	want.Write(msg)
	wantSum := want.Sum(nil)

	inner := innerHashState(secret)
	// inner's first block is the key XOR ipad; finishHash resumes from
	// exactly that midstate and absorbs msg as the continuation.
	innerResult := finishHash(inner, msg)

	outer := outerHashState(secret)
	got := finishHash(outer, innerResult[:])

	if !bytes.Equal(got[:], wantSum) {
		t.Fatalf("finishHash chain = %x, want %x", got, wantSum)
	}
}

func TestFinishHashDeterministic(t *testing.T) {
	secret := []byte("secret")
	state := outerHashState(secret)
	a := finishHash(state, []byte("data"))
	b := finishHash(state, []byte("data"))
	if a != b {
		t.Fatal("finishHash is not deterministic for fixed inputs")
	}
}

func TestPHashKnownLength(t *testing.T) {
	out := pHash([]byte("secret"), []byte("seed"), 40)
	if len(out) != 40 {
		t.Fatalf("pHash returned %d bytes, want 40", len(out))
	}
}
