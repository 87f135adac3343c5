// Package mock implements an insecure gce.Executor. It computes the PRF
// Follower's three circuits directly, knowing both parties' secrets, instead
// of running a real garbled-circuit protocol. It exists so the orchestrator
// in package prf can be exercised without a real GCE backend; the tests use
// it, and main.go wires it in as the server's executor, the only Executor
// implementation in this tree.
package mock

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/saberistic/tlsn/gce"
	"github.com/saberistic/tlsn/utils"
)

// Executor is the insecure stand-in garbled-circuit evaluator described in
// the design notes: a mock executor that implements the PRF directly is
// acceptable for unit testing the orchestrator. LeaderShare is the Leader's
// P-256 secret share that Executor's peer would contribute; combined with
// the caller's own share this reconstructs the joint secret so circuits c1
// and c3 can compute real PRF intermediates instead of opaque garbled ones.
type Executor struct {
	LeaderShare SecretShare

	// LeaderP2 is the Leader-side counterpart to the intermediate p2
	// supplied by the Follower's core to circuit c2. The mock XORs the two
	// shares together and hashes the result after the c1 state to produce
	// outer_hash_state_v2, standing in for the production circuit's
	// two-party addition.
	LeaderP2 []byte
}

// SecretShare mirrors prf.SecretShare without importing package prf, which
// would create an import cycle (prf's tests import this package).
type SecretShare []byte

// masterSecretLen is the fixed width of a TLS 1.2 master secret.
const masterSecretLen = 48

func (e *Executor) Execute(_ context.Context, circuit gce.Circuit, inputs map[string][]byte) (map[string][]byte, error) {
	switch circuit {
	case gce.CircuitC1:
		return e.executeC1(inputs)
	case gce.CircuitC2:
		return e.executeC2(inputs)
	case gce.CircuitC3:
		return e.executeC3(inputs)
	default:
		return nil, fmt.Errorf("mock: unknown circuit %s", circuit)
	}
}

// executeC1 reconstructs the master secret from both parties' shares (XOR
// additive sharing) and derives the outer HMAC state from it, standing in
// for the real two-party secure computation that never assembles the
// secret in one place.
func (e *Executor) executeC1(inputs map[string][]byte) (map[string][]byte, error) {
	followerShare := inputs["secret_share"]
	secret := xorPad(followerShare, e.LeaderShare, masterSecretLen)
	state := utils.HMACPadState(secret, 0x5c)
	return map[string][]byte{"outer_hash_state_v1": state[:]}, nil
}

// executeC2 folds the Leader's contribution to p2 into the state the
// Follower already derived, mirroring how the real circuit absorbs both
// parties' shares of the intermediate value.
func (e *Executor) executeC2(inputs map[string][]byte) (map[string][]byte, error) {
	var state [sha256.Size]byte
	copy(state[:], inputs["outer_hash_state_v1"])
	p2 := xorPad(inputs["p2"], e.LeaderP2, sha256.Size)

	digest := sha256.New()
	digest.Write(state[:])
	digest.Write(p2)
	next := digest.Sum(nil)
	var out [sha256.Size]byte
	copy(out[:], next)
	return map[string][]byte{"outer_hash_state_v2": out[:]}, nil
}

// executeC3 derives session-key-share-sized output deterministically from
// the refined outer state, using the same blake2b-based generic hash the
// notary's original session code used for its non-cryptographic label
// derivation, and returns it as the Follower's full, non-additive share (the
// Leader's mock share is the zero string, so XOR recovers it exactly). This
// keeps the mock's output format identical to what a real c3 circuit would
// emit: fixed-width client/server write key and IV material.
func (e *Executor) executeC3(inputs map[string][]byte) (map[string][]byte, error) {
	state := inputs["outer_hash_state_v2"]
	const total = 16 + 16 + 4 + 4
	shares := utils.Generichash(total, state)

	// Re-permute the client write key share through the same Salsa20-based
	// label encryption the original garbler used on wire labels, so the
	// mock exercises the same primitive a real label-encryption circuit
	// evaluator would, rather than relying on generichash alone.
	a := state[0:16]
	b := utils.Generichash(16, append([]byte("c3-label"), state...))
	copy(shares[0:16], utils.EncryptLabel(a, b, 0, shares[0:16]))

	return map[string][]byte{"session_key_shares": shares}, nil
}

func xorPad(a, b []byte, width int) []byte {
	out := make([]byte, width)
	for i := 0; i < width && i < len(a); i++ {
		out[i] ^= a[i]
	}
	for i := 0; i < width && i < len(b); i++ {
		out[i] ^= b[i]
	}
	return out
}
