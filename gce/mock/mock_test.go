package mock

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/saberistic/tlsn/gce"
)

func TestExecuteUnknownCircuit(t *testing.T) {
	e := &Executor{}
	if _, err := e.Execute(context.Background(), gce.Circuit("bogus"), nil); err == nil {
		t.Fatal("expected error for unknown circuit")
	}
}

func TestExecuteC1Deterministic(t *testing.T) {
	e := &Executor{LeaderShare: SecretShare("leader-share")}
	inputs := map[string][]byte{"secret_share": []byte("follower-share")}

	out1, err := e.Execute(context.Background(), gce.CircuitC1, inputs)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out2, err := e.Execute(context.Background(), gce.CircuitC1, inputs)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(out1["outer_hash_state_v1"]) != string(out2["outer_hash_state_v1"]) {
		t.Fatal("c1 output is not deterministic for fixed inputs")
	}
	if len(out1["outer_hash_state_v1"]) != sha256.Size {
		t.Fatalf("c1 output length = %d, want %d", len(out1["outer_hash_state_v1"]), sha256.Size)
	}
}

func TestExecuteC3OutputLength(t *testing.T) {
	e := &Executor{}
	state := make([]byte, sha256.Size)
	out, err := e.Execute(context.Background(), gce.CircuitC3, map[string][]byte{"outer_hash_state_v2": state})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out["session_key_shares"]) != 16+16+4+4 {
		t.Fatalf("c3 output length = %d, want 40", len(out["session_key_shares"]))
	}
}
