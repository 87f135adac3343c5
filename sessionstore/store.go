// Package sessionstore holds the process-wide mapping from session id to
// verifier configuration that the /session and /notarize HTTP endpoints
// share, adapted from the original notary's session_manager: a single
// mutex-guarded map and a stale-session sweep goroutine, repointed at
// one-shot session configs instead of live garbled-circuit sessions. There
// is no destroy channel; Take removes a session synchronously.
package sessionstore

import (
	"log"
	"sync"
	"time"
)

// Config is what /session stashes for a session id and /notarize consumes
// exactly once.
type Config struct {
	SessionID    string
	MaxSentData  uint64
	MaxRecvData  uint64
	BoundMessage []byte
	CreatedAt    time.Time
}

// staleAfter bounds how long an allocated-but-never-upgraded session is kept
// around; it is not part of the wire contract, only local housekeeping.
const staleAfter = 20 * time.Minute

// Store is the single mutex-guarded map described in the design notes: one
// insertion per session id at /session, one removal per session id at
// /notarize. A second removal attempt (replay) must observe the id as
// already gone.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Config
	closeCh  chan struct{}
	closeOne sync.Once
}

// New constructs a Store and starts its background stale-session sweep. The
// returned Store must be stopped with Close when the server shuts down.
func New() *Store {
	s := &Store{
		sessions: make(map[string]Config),
		closeCh:  make(chan struct{}),
	}
	go s.sweepStale()
	return s
}

// Insert adds cfg under its SessionID. It returns false, without modifying
// the store, if the id is already present, rather than silently overwrite a
// live session.
func (s *Store) Insert(cfg Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[cfg.SessionID]; exists {
		return false
	}
	s.sessions[cfg.SessionID] = cfg
	return true
}

// Take removes and returns the Config for id, reporting false if the id is
// not present: either it was never inserted, it has already been taken
// once (the one-shot invariant /notarize relies on), or it was swept as
// stale.
func (s *Store) Take(id string) (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.sessions[id]
	if !ok {
		return Config{}, false
	}
	delete(s.sessions, id)
	return cfg, true
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *Store) Close() {
	s.closeOne.Do(func() { close(s.closeCh) })
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, cfg := range s.sessions {
				if now.Sub(cfg.CreatedAt) > staleAfter {
					log.Println("sessionstore: sweeping stale session", id)
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
