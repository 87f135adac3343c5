// Package config holds the notary server's static, process-wide
// configuration: the notary signing key shared read-only across sessions,
// command-line flags, and the transcript-size ceiling. SigningKey is
// adapted from the original notary's tag signing manager, repointed from
// signing AES-GCM tags to signing the notary's attestation over a completed
// session.
package config

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/saberistic/tlsn/utils"
)

// SigningKey wraps the notary's ECDSA key, loaded once at startup and
// shared read-only by every session for the lifetime of the process.
type SigningKey struct {
	key          *ecdsa.PrivateKey
	lastModified time.Time
}

// LoadSigningKey reads a PEM-encoded EC private key from path.
func LoadSigningKey(path string) (*SigningKey, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading signing key: %w", err)
	}

	block, _ := pem.Decode(file)
	if block == nil {
		return nil, fmt.Errorf("config: %s is not valid PEM", path)
	}

	ecdsaKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("config: parsing EC private key: %w", err)
	}

	log.Printf("loaded %s notary signing key (curve %s)", path, ecdsaKey.Params().Name)

	return &SigningKey{key: ecdsaKey, lastModified: time.Now()}, nil
}

// Sign returns an ASN.1-encoded ECDSA-SHA256 signature over the concatenated
// items, the notary's attestation that it participated in deriving the
// session's key shares. It never signs raw TLS record-layer ciphertext;
// that surface is out of scope.
func (s *SigningKey) Sign(items ...[]byte) ([]byte, error) {
	digest := utils.Sha256(utils.Concat(items...))
	return ecdsa.SignASN1(rand.Reader, s.key, digest)
}

// ServePublicKey serves the notary's public signing key as a PEM file, so
// a Leader or downstream verifier can check attestations without a
// side-channel key distribution step.
func (s *SigningKey) ServePublicKey(w http.ResponseWriter, req *http.Request) {
	pubKeyPEM := utils.ECDSAPubkeyToPEM(&s.key.PublicKey)
	w.Header().Set("Content-Type", "application/x-pem-file")
	http.ServeContent(w, req, "signing-key.pem", s.lastModified, bytes.NewReader(pubKeyPEM))
}
