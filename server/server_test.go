package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/saberistic/tlsn/config"
	"github.com/saberistic/tlsn/gce"
	"github.com/saberistic/tlsn/gce/mock"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	f, err := os.CreateTemp(t.TempDir(), "signing-*.key")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(pemBytes); err != nil {
		t.Fatalf("write temp key: %v", err)
	}
	f.Close()

	signing, err := config.LoadSigningKey(f.Name())
	if err != nil {
		t.Fatalf("LoadSigningKey: %v", err)
	}

	cfg := &config.Config{TranscriptSizeCeiling: 1 << 20}
	return New(cfg, signing, func() gce.Executor { return &mock.Executor{} })
}

func TestHandleSessionRequiresBoundMessage(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.Mux().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "ConfigError") {
		t.Fatalf("body = %q, want ConfigError", w.Body.String())
	}
}

func TestHandleSessionRejectsOversizeTranscript(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()

	form := url.Values{
		"bound_message": {"bind me"},
		"max_sent_data": {"2097152"},
		"max_recv_data": {"2097152"},
	}
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.Mux().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "BadProverRequest") {
		t.Fatalf("body = %q, want BadProverRequest", w.Body.String())
	}
}

func TestHandleSessionAllocatesID(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()

	form := url.Values{"bound_message": {"bind me"}}
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.Mux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected a non-empty session id in the response body")
	}
}

func TestHandleNotarizeRejectsUnknownSession(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, "/notarize?session_id=does-not-exist", nil)
	w := httptest.NewRecorder()

	s.Mux().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "does not exist") {
		t.Fatalf("body = %q, want mention of nonexistent session", w.Body.String())
	}
}
