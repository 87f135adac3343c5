// Package server is the session-initialization collaborator (C5): it owns
// the HTTP surface, the session store, and the notary signing key, and
// upgrades a caller's connection into the raw byte stream the PRF follower
// orchestrator drives. Structured the way the original notary's top-level
// notary.go wires its ServeMux and session manager together, minus the
// cgo-based OT/circuit-blob plumbing that belonged to the record-layer
// surface this rework does not implement.
package server

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saberistic/tlsn/config"
	"github.com/saberistic/tlsn/gce"
	"github.com/saberistic/tlsn/keyexchange"
	"github.com/saberistic/tlsn/prf"
	"github.com/saberistic/tlsn/sessionstore"
)

// Server is the notary's HTTP front end. Addr, SigningKey, and the
// transcript-size ceiling are shared read-only across every session; the
// session store is the only thing Server mutates per request.
type Server struct {
	cfg      *config.Config
	signing  *config.SigningKey
	store    *sessionstore.Store
	executor func() gce.Executor
}

// New constructs a Server. executor is called once per /notarize upgrade to
// obtain a fresh garbled-circuit executor handle for that session; real
// deployments inject a handle bound to a concrete garbling backend, tests
// inject gce/mock.
func New(cfg *config.Config, signing *config.SigningKey, executor func() gce.Executor) *Server {
	return &Server{
		cfg:      cfg,
		signing:  signing,
		store:    sessionstore.New(),
		executor: executor,
	}
}

// Mux builds the server's http.ServeMux.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/notarize", s.handleNotarize)
	mux.HandleFunc("/signing-key.pem", s.signing.ServePublicKey)
	mux.HandleFunc("/ping", handlePing)
	return mux
}

// Close releases the session store's background sweep.
func (s *Server) Close() {
	s.store.Close()
}

func handlePing(w http.ResponseWriter, req *http.Request) {
	writeResponse(w, nil)
}

func writeResponse(w http.ResponseWriter, body []byte) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(body); err != nil {
		log.Println("server: write response:", err)
	}
}

// handleSession is the /session endpoint: it validates the caller's
// request, allocates a session id, and caches the verifier configuration
// for /notarize to consume exactly once.
func (s *Server) handleSession(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeServerError(w, BadProverRequest("could not parse request: %v", err))
		return
	}

	boundMessage := []byte(req.Form.Get("bound_message"))
	if len(boundMessage) == 0 {
		writeServerError(w, ConfigError("bound message is required"))
		return
	}

	maxSent, hasSent := parseOptionalUint(req.Form.Get("max_sent_data"))
	maxRecv, hasRecv := parseOptionalUint(req.Form.Get("max_recv_data"))
	if hasSent || hasRecv {
		if maxSent+maxRecv > s.cfg.TranscriptSizeCeiling {
			writeServerError(w, BadProverRequest("Max transcript size requested exceeds the maximum threshold"))
			return
		}
	}

	sessionID := uuid.NewString()
	cfg := sessionstore.Config{
		SessionID:    sessionID,
		MaxSentData:  maxSent,
		MaxRecvData:  maxRecv,
		BoundMessage: boundMessage,
	}
	cfg.CreatedAt = nowFunc()
	if !s.store.Insert(cfg) {
		// astronomically unlikely uuid collision; treat like any other
		// malformed request rather than panic.
		writeServerError(w, BadProverRequest("session id collision, retry"))
		return
	}

	writeResponse(w, []byte(sessionID))
}

func parseOptionalUint(v string) (uint64, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// handleNotarize is the /notarize endpoint: it removes the session id from
// the store (one-shot; a replayed id is BadProverRequest), upgrades the
// connection to a raw byte stream, and runs the PRF follower orchestrator
// to completion.
func (s *Server) handleNotarize(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("session_id")
	if sessionID == "" {
		writeServerError(w, BadProverRequest("session_id is required"))
		return
	}

	sessCfg, ok := s.store.Take(sessionID)
	if !ok {
		writeServerError(w, BadProverRequest("Session id %s does not exist", sessionID))
		return
	}

	conn, err := hijack(w)
	if err != nil {
		writeServerError(w, BadProverRequest("could not upgrade connection: %v", err))
		return
	}
	defer conn.Close()

	if err := s.runSession(req.Context(), conn, sessCfg); err != nil {
		log.Printf("server: session %s failed: %v", sessionID, err)
	}
}

// hijack extracts the raw net.Conn underneath an HTTP response: PRFChannel
// only needs a reliable, full-duplex byte pipe, and Go's http.Hijacker
// provides exactly that. No HTTP response or WebSocket handshake is written
// and no WebSocket framing is decoded; the key-exchange and PRF frames
// travel directly on the raw connection.
func hijack(w http.ResponseWriter) (net.Conn, error) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		return nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// runSession drives one complete PRF follower session: it runs the
// key-exchange collaborator to obtain the follower's P-256 secret share,
// then walks the MasterSecret/ClientFinished/ServerFinished phases to
// completion. Both stages read from the single bufio.Reader constructed
// here, so bytes the key-exchange round's reader buffers ahead of its own
// frames (a bufio.Reader's fill() routinely reads further than one frame)
// are not lost once PRFChannel framing begins.
func (s *Server) runSession(ctx context.Context, conn net.Conn, cfg sessionstore.Config) error {
	r := bufio.NewReader(conn)

	secretShare, err := deriveSecretShare(r, conn)
	if err != nil {
		return fmt.Errorf("key exchange: %w", err)
	}

	channel := prf.NewStreamChannelFromReader(r, conn)
	follower := prf.NewFollower(channel, s.executor(), cfg.SessionID)

	_, clientFinished, err := follower.ComputeSessionKeys(ctx, secretShare)
	if err != nil {
		return fmt.Errorf("compute session keys: %w", err)
	}

	serverFinished, err := clientFinished.ComputeClientFinished(ctx)
	if err != nil {
		return fmt.Errorf("compute client finished: %w", err)
	}

	if err := serverFinished.ComputeServerFinished(ctx); err != nil {
		return fmt.Errorf("compute server finished: %w", err)
	}

	attestation, err := s.signing.Sign([]byte(cfg.SessionID), cfg.BoundMessage)
	if err != nil {
		return fmt.Errorf("signing session attestation: %w", err)
	}
	if err := writeFrame(conn, attestation); err != nil {
		return fmt.Errorf("writing session attestation: %w", err)
	}

	return nil
}

// deriveSecretShare runs the Follower side of the key-exchange
// collaborator's four-step Paillier round over r/w, using its own
// length-prefixed wire format distinct from PRFChannel's tagged framing
// (the design notes treat this as a private contract of its own, consumed
// before PRFChannel framing begins). It returns once the Collaborator has
// produced the Follower's P-256 secret share. r must be the same
// bufio.Reader the caller goes on to build the PRFChannel from, so that any
// bytes r has already buffered past this round's frames are not dropped.
func deriveSecretShare(r *bufio.Reader, w io.Writer) (prf.SecretShare, error) {
	modulusBytes, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("reading leader modulus: %w", err)
	}
	encSecret, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("reading encrypted secret: %w", err)
	}

	collaborator := keyexchange.New()
	if err := collaborator.Step1(new(big.Int).SetBytes(modulusBytes), encSecret); err != nil {
		return nil, fmt.Errorf("step1: %w", err)
	}

	blinded, err := collaborator.Step2()
	if err != nil {
		return nil, fmt.Errorf("step2: %w", err)
	}
	if err := writeFrame(w, blinded); err != nil {
		return nil, fmt.Errorf("writing blinded share: %w", err)
	}

	nonce, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("reading leader nonce: %w", err)
	}
	commitment, err := collaborator.Step3(nonce)
	if err != nil {
		return nil, fmt.Errorf("step3: %w", err)
	}
	if err := writeFrame(w, commitment); err != nil {
		return nil, fmt.Errorf("writing commitment: %w", err)
	}

	share, err := collaborator.Step4()
	if err != nil {
		return nil, fmt.Errorf("step4: %w", err)
	}
	return prf.SecretShare(share), nil
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}
	buf := make([]byte, binary.BigEndian.Uint32(length[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writeServerError(w http.ResponseWriter, err *NotaryServerError) {
	w.WriteHeader(http.StatusBadRequest)
	writeResponse(w, []byte(err.Error()))
}

// nowFunc is the clock handleSession stamps each new session's CreatedAt
// with; it is a package variable so a fixed clock can be substituted.
var nowFunc = time.Now
