package keyexchange

import (
	"crypto/rand"
	"math/big"
	"testing"

	paillier "github.com/roasbeef/go-go-gadget-paillier"
)

// TestExchangeSharesCombineToSecret drives a reference Leader side (which
// knows the secret s and holds the Paillier keypair) against the Follower's
// Collaborator, and checks that leaderShare - followerShare reproduces s
// mod scalarOrder, the combination rule this package documents.
func TestExchangeSharesCombineToSecret(t *testing.T) {
	priv, err := paillier.GenerateKeyPair(rand.Reader, paillierKeyBits)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	secret, err := rand.Int(rand.Reader, scalarOrder)
	if err != nil {
		t.Fatalf("rand.Int: %v", err)
	}

	encSecret, err := paillier.Encrypt(&priv.PublicKey, secret.Bytes())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	follower := New()
	if err := follower.Step1(priv.PublicKey.N, encSecret); err != nil {
		t.Fatalf("Step1: %v", err)
	}

	blinded, err := follower.Step2()
	if err != nil {
		t.Fatalf("Step2: %v", err)
	}

	blindedPlain, err := paillier.Decrypt(priv, blinded)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	leaderShare := new(big.Int).SetBytes(blindedPlain)

	nonce := []byte("session-nonce")
	if _, err := follower.Step3(nonce); err != nil {
		t.Fatalf("Step3: %v", err)
	}

	followerShareBytes, err := follower.Step4()
	if err != nil {
		t.Fatalf("Step4: %v", err)
	}
	followerShare := new(big.Int).SetBytes(followerShareBytes)

	got := new(big.Int).Sub(leaderShare, followerShare)
	got.Mod(got, scalarOrder)
	want := new(big.Int).Mod(secret, scalarOrder)

	if got.Cmp(want) != 0 {
		t.Fatalf("leaderShare - followerShare = %s, want %s", got, want)
	}
}

func TestStep4IsOneShot(t *testing.T) {
	priv, err := paillier.GenerateKeyPair(rand.Reader, paillierKeyBits)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	secret, _ := rand.Int(rand.Reader, scalarOrder)
	encSecret, err := paillier.Encrypt(&priv.PublicKey, secret.Bytes())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	follower := New()
	if err := follower.Step1(priv.PublicKey.N, encSecret); err != nil {
		t.Fatalf("Step1: %v", err)
	}
	if _, err := follower.Step2(); err != nil {
		t.Fatalf("Step2: %v", err)
	}
	if _, err := follower.Step4(); err != nil {
		t.Fatalf("first Step4: %v", err)
	}
	if _, err := follower.Step4(); err == nil {
		t.Fatal("second Step4 call should have failed")
	}
}
