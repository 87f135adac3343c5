package prf

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/saberistic/tlsn/gce"
)

// SecretShare is the Follower's additive share of the premaster secret
// point's x-coordinate, produced by an upstream key-exchange subprotocol
// (see package keyexchange) and consumed exactly once, in MasterSecret.
type SecretShare []byte

// SessionKeyShares is the Follower's additive shares of the TLS session
// keys; XOR with the Leader's shares yields the real key material. Never
// logged, never persisted.
type SessionKeyShares struct {
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte
}

const (
	clientWriteKeyLen = 16
	serverWriteKeyLen = 16
	clientWriteIVLen  = 4
	serverWriteIVLen  = 4
)

func splitSessionKeyShares(b []byte) SessionKeyShares {
	var out SessionKeyShares
	out.ClientWriteKey, b = b[:clientWriteKeyLen], b[clientWriteKeyLen:]
	out.ServerWriteKey, b = b[:serverWriteKeyLen], b[serverWriteKeyLen:]
	out.ClientWriteIV, b = b[:clientWriteIVLen], b[clientWriteIVLen:]
	out.ServerWriteIV = b[:serverWriteIVLen]
	return out
}

// phaseGuard enforces that a phase value drives exactly one transition. Go
// has no linear types, so this is the "builder with runtime assertions"
// option the design explicitly allows: reuse panics rather than silently
// re-running a consumed phase.
type phaseGuard struct {
	consumed atomic.Bool
}

func (g *phaseGuard) consume(tag string) {
	if !g.consumed.CompareAndSwap(false, true) {
		panic("prf: phase value " + tag + " already consumed")
	}
}

// MasterSecret is the initial phase of a Follower. It is produced by
// NewFollower and consumed exactly once by ComputeSessionKeys.
type MasterSecret struct {
	guard     *phaseGuard
	channel   Channel
	executor  gce.Executor
	sessionID string
}

// NewFollower constructs a Follower in its initial MasterSecret phase. It
// takes ownership of channel and executor; both are released when the
// Follower reaches Done or returns an error.
func NewFollower(channel Channel, executor gce.Executor, sessionID string) *MasterSecret {
	return &MasterSecret{
		guard:     new(phaseGuard),
		channel:   channel,
		executor:  executor,
		sessionID: sessionID,
	}
}

// recvExpect reads the next message and confirms it carries want; any other
// tag, or end of stream, is a fatal protocol error.
func recvExpect(ctx context.Context, ch Channel, want Tag) (Message, error) {
	m, err := ch.Recv(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Message{}, errConnectionAborted()
		}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return Message{}, errMalformed(err)
		}
		return Message{}, errChannel(err)
	}
	if m.Tag != want {
		return Message{}, errUnexpectedMessage(m.Tag)
	}
	return m, nil
}

func send(ctx context.Context, ch Channel, tag Tag, payload []byte) error {
	if err := ch.Send(ctx, Message{Tag: tag, Payload: payload}); err != nil {
		return errChannel(err)
	}
	return nil
}

// ComputeSessionKeys drives the MasterSecret phase to completion: it derives
// the outer HMAC state via circuit c1, exchanges Ms1/Ms2/Ms3, derives the
// refined outer state via circuit c2, exchanges Ke1/Ke2, and derives session
// key shares via circuit c3. secretShare never leaves this function in
// plaintext; it only ever becomes a circuit input.
func (p *MasterSecret) ComputeSessionKeys(ctx context.Context, secretShare SecretShare) (SessionKeyShares, *ClientFinished, error) {
	p.guard.consume("MasterSecret")

	c1Out, err := p.executor.Execute(ctx, gce.CircuitC1, map[string][]byte{
		"secret_share": secretShare,
	})
	if err != nil {
		return SessionKeyShares{}, nil, errGarbledCircuit(err)
	}
	var stateV1 OuterHashState
	copy(stateV1[:], c1Out["outer_hash_state_v1"])

	leaderMs1, err := recvExpect(ctx, p.channel, TagLeaderMs1)
	if err != nil {
		return SessionKeyShares{}, nil, err
	}
	followerMs1 := coreStepMs1(stateV1, leaderMs1.Payload)
	if err := send(ctx, p.channel, TagFollowerMs1, followerMs1); err != nil {
		return SessionKeyShares{}, nil, err
	}

	leaderMs2, err := recvExpect(ctx, p.channel, TagLeaderMs2)
	if err != nil {
		return SessionKeyShares{}, nil, err
	}
	followerMs2 := coreStepMs2(stateV1, leaderMs2.Payload)
	if err := send(ctx, p.channel, TagFollowerMs2, followerMs2); err != nil {
		return SessionKeyShares{}, nil, err
	}

	leaderMs3, err := recvExpect(ctx, p.channel, TagLeaderMs3)
	if err != nil {
		return SessionKeyShares{}, nil, err
	}
	p2 := coreStepMs3(stateV1, leaderMs3.Payload)

	c2Out, err := p.executor.Execute(ctx, gce.CircuitC2, map[string][]byte{
		"outer_hash_state_v1": stateV1[:],
		"p2":                  p2,
	})
	if err != nil {
		return SessionKeyShares{}, nil, errGarbledCircuit(err)
	}
	var stateV2 OuterHashState
	copy(stateV2[:], c2Out["outer_hash_state_v2"])

	leaderKe1, err := recvExpect(ctx, p.channel, TagLeaderKe1)
	if err != nil {
		return SessionKeyShares{}, nil, err
	}
	followerKe1 := coreStepKe1(stateV2, leaderKe1.Payload)
	if err := send(ctx, p.channel, TagFollowerKe1, followerKe1); err != nil {
		return SessionKeyShares{}, nil, err
	}

	leaderKe2, err := recvExpect(ctx, p.channel, TagLeaderKe2)
	if err != nil {
		return SessionKeyShares{}, nil, err
	}
	followerKe2 := coreStepKe2(stateV2, leaderKe2.Payload)
	if err := send(ctx, p.channel, TagFollowerKe2, followerKe2); err != nil {
		return SessionKeyShares{}, nil, err
	}

	c3Out, err := p.executor.Execute(ctx, gce.CircuitC3, map[string][]byte{
		"outer_hash_state_v2": stateV2[:],
	})
	if err != nil {
		return SessionKeyShares{}, nil, errGarbledCircuit(err)
	}
	shares := splitSessionKeyShares(c3Out["session_key_shares"])

	next := &ClientFinished{
		guard:     new(phaseGuard),
		channel:   p.channel,
		executor:  p.executor,
		sessionID: p.sessionID,
		stateV2:   stateV2,
	}
	return shares, next, nil
}

// ClientFinished is reached once session key shares have been derived. It is
// consumed exactly once by ComputeClientFinished.
type ClientFinished struct {
	guard     *phaseGuard
	channel   Channel
	executor  gce.Executor
	sessionID string
	stateV2   OuterHashState
}

// ComputeClientFinished exchanges Cf1/Cf2 and advances to ServerFinished.
func (p *ClientFinished) ComputeClientFinished(ctx context.Context) (*ServerFinished, error) {
	p.guard.consume("ClientFinished")

	leaderCf1, err := recvExpect(ctx, p.channel, TagLeaderCf1)
	if err != nil {
		return nil, err
	}
	followerCf1 := coreStepCf1(p.stateV2, leaderCf1.Payload)
	if err := send(ctx, p.channel, TagFollowerCf1, followerCf1); err != nil {
		return nil, err
	}

	leaderCf2, err := recvExpect(ctx, p.channel, TagLeaderCf2)
	if err != nil {
		return nil, err
	}
	followerCf2 := coreStepCf2(p.stateV2, leaderCf2.Payload)
	if err := send(ctx, p.channel, TagFollowerCf2, followerCf2); err != nil {
		return nil, err
	}

	return &ServerFinished{
		guard:     new(phaseGuard),
		channel:   p.channel,
		executor:  p.executor,
		sessionID: p.sessionID,
		stateV2:   p.stateV2,
	}, nil
}

// ServerFinished is the last phase before Done. It is consumed exactly once
// by ComputeServerFinished, which releases the channel and executor.
type ServerFinished struct {
	guard     *phaseGuard
	channel   Channel
	executor  gce.Executor
	sessionID string
	stateV2   OuterHashState
}

// ComputeServerFinished exchanges Sf1/Sf2 and consumes the Follower.
func (p *ServerFinished) ComputeServerFinished(ctx context.Context) error {
	p.guard.consume("ServerFinished")

	leaderSf1, err := recvExpect(ctx, p.channel, TagLeaderSf1)
	if err != nil {
		return err
	}
	followerSf1 := coreStepSf1(p.stateV2, leaderSf1.Payload)
	if err := send(ctx, p.channel, TagFollowerSf1, followerSf1); err != nil {
		return err
	}

	leaderSf2, err := recvExpect(ctx, p.channel, TagLeaderSf2)
	if err != nil {
		return err
	}
	followerSf2 := coreStepSf2(p.stateV2, leaderSf2.Payload)
	if err := send(ctx, p.channel, TagFollowerSf2, followerSf2); err != nil {
		return err
	}

	return nil
}
