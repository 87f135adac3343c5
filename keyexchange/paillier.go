// Package keyexchange implements the follower side of the two-party
// additive-share exchange that hands the PRF follower its P-256 secret
// share, grounded in the four-step call shape of the original notary
// session's Paillier 2PC EC-point-addition round (Step1 through Step4),
// rebuilt on the real github.com/roasbeef/go-go-gadget-paillier and
// github.com/bwesterb/go-ristretto libraries the teacher depended on.
//
// This package is deliberately a simplified stand-in for the original
// protocol: it re-shares a scalar the Leader already knows into two additive
// shares without the Follower ever decrypting anything, using Paillier's
// homomorphic addition, rather than reproducing the original's full
// EC-point-addition arithmetic circuit (which needs a secure-multiplication
// sub-protocol this package does not implement). See DESIGN.md.
package keyexchange

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/bwesterb/go-ristretto"
	paillier "github.com/roasbeef/go-go-gadget-paillier"

	"github.com/saberistic/tlsn/utils"
)

// paillierKeyBits is the Paillier modulus size used for the exchange. 2048
// bits matches the key sizes the original protocol's Paillier backend used.
const paillierKeyBits = 2048

// scalarOrder bounds the additive group the secret share lives in; shares
// are reduced mod this order before being handed to the PRF follower as its
// P-256 secret share input. It is the Ristretto255 group order, reused here
// as a convenient prime close to P-256's order since this package stands in
// for, rather than reproduces, the original's native P-256 arithmetic.
var scalarOrder, _ = new(big.Int).SetString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed", 16)

// Collaborator runs the Follower side of one key-exchange session. It is
// constructed fresh per session by the session-initialization collaborator
// and consumed by exactly one run of Step1 through Step4, mirroring the
// one-shot P2PC object the original session type held per session.
type Collaborator struct {
	leaderPub   *paillier.PublicKey
	encSecret   []byte
	mask        *ristretto.Scalar
	done        bool
	finalShare  []byte
	commitNonce []byte
}

// New constructs an unstarted Collaborator.
func New() *Collaborator {
	return &Collaborator{}
}

// Step1 receives the Leader's Paillier public modulus and its secret value
// s encrypted under that key. The Collaborator never learns s; it only ever
// operates on the ciphertext.
//
// The PublicKey below is built with every derived field GenerateKeyPair
// itself would populate (N, G = N+1, and NSquare = N*N) rather than leaving
// NSquare at its zero value: Encrypt/AddCipher need N*N, and since the
// Collaborator never runs GenerateKeyPair itself here (it only ever learns
// the Leader's modulus, never the matching private key), it has to
// reconstruct the same PublicKey shape by hand.
func (c *Collaborator) Step1(leaderModulus *big.Int, encSecret []byte) error {
	if leaderModulus == nil || leaderModulus.Sign() <= 0 {
		return fmt.Errorf("keyexchange: invalid leader modulus")
	}
	c.leaderPub = &paillier.PublicKey{N: leaderModulus}
	c.leaderPub.G = new(big.Int).Add(c.leaderPub.N, big.NewInt(1))
	c.leaderPub.NSquare = new(big.Int).Mul(c.leaderPub.N, c.leaderPub.N)
	c.encSecret = append([]byte{}, encSecret...)
	return nil
}

// Step2 draws the Follower's random mask m, homomorphically folds it into
// the Leader's ciphertext to produce Enc(s+m), and returns that ciphertext
// for the caller to relay back to the Leader. The Follower's own final
// share is set to m and never leaves this process.
func (c *Collaborator) Step2() ([]byte, error) {
	if c.leaderPub == nil {
		return nil, fmt.Errorf("keyexchange: Step2 called before Step1")
	}

	maskInt, err := rand.Int(rand.Reader, scalarOrder)
	if err != nil {
		return nil, fmt.Errorf("keyexchange: generating mask: %w", err)
	}
	var mask ristretto.Scalar
	mask.SetBigInt(maskInt)
	c.mask = &mask

	encMask, err := paillier.Encrypt(c.leaderPub, maskInt.Bytes())
	if err != nil {
		return nil, fmt.Errorf("keyexchange: encrypting mask: %w", err)
	}

	blinded := paillier.AddCipher(c.leaderPub, c.encSecret, encMask)
	return blinded, nil
}

// Step3 receives a binding nonce from the Leader (proof that the Leader
// decrypted the blinded value and is continuing the same session) and
// returns an opaque commitment to the Follower's mask that the Leader can
// later use, together with its own arithmetic, to audit the exchange.
// The commitment does not reveal the mask.
func (c *Collaborator) Step3(leaderNonce []byte) ([]byte, error) {
	if c.mask == nil {
		return nil, fmt.Errorf("keyexchange: Step3 called before Step2")
	}
	c.commitNonce = append([]byte{}, leaderNonce...)
	maskBytes := c.mask.BigInt().Bytes()
	commitment := utils.Generichash(32, utils.Concat(leaderNonce, maskBytes))
	return commitment, nil
}

// Step4 finalizes the exchange and returns the Follower's additive P-256
// secret share: the mask drawn in Step2, reduced mod the group order and
// encoded as a fixed-width big-endian byte string. The Leader's share is
// the value s+m it decrypts from Step2's ciphertext, so the Leader's share
// minus this one equals s mod the group order. The Collaborator is
// consumed; calling Step4 twice returns an error.
func (c *Collaborator) Step4() ([]byte, error) {
	if c.done {
		return nil, fmt.Errorf("keyexchange: already finalized")
	}
	if c.mask == nil {
		return nil, fmt.Errorf("keyexchange: Step4 called before Step2")
	}
	c.done = true

	buf := make([]byte, 32)
	c.mask.BigInt().FillBytes(buf)
	c.finalShare = buf
	return buf, nil
}
