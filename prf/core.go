package prf

// This file is the pure, I/O-free PRF core (no network, no GCE calls). Every
// function here is a total, deterministic transform over already-received
// bytes and already-known crypto state; the orchestrator in follower.go is
// the only thing that calls recv/send or invokes the garbled-circuit
// executor.
//
// Every Ms/Ke/Cf/Sf round reduces to a single mechanic: given the outer HMAC
// state currently in force, fold in the Leader's payload for that round and
// emit the result as the Follower's payload (or, for Ms3, as the internal
// value p2 rather than an outbound message). Which outer state is "currently
// in force" is the only thing that changes across rounds: stateV1 governs
// Ms1/Ms2/Ms3, and stateV2 (produced by circuit c2 from stateV1 and p2)
// governs everything from Ke1 onward, since key expansion and the Finished
// verify-data derivations are both keyed on the master secret through the
// same outer state once it has absorbed p2.

// coreStepMs1 derives the Follower's Ms1 contribution from the Leader's.
func coreStepMs1(stateV1 OuterHashState, leaderMs1 []byte) (followerMs1 []byte) {
	out := finishHash(stateV1, leaderMs1)
	return out[:]
}

// coreStepMs2 derives the Follower's Ms2 contribution from the Leader's.
func coreStepMs2(stateV1 OuterHashState, leaderMs2 []byte) (followerMs2 []byte) {
	out := finishHash(stateV1, leaderMs2)
	return out[:]
}

// coreStepMs3 absorbs the Leader's Ms3 payload and exposes p2, the
// intermediate value circuit c2 needs; Ms3 has no Follower-side message.
func coreStepMs3(stateV1 OuterHashState, leaderMs3 []byte) (p2 []byte) {
	out := finishHash(stateV1, leaderMs3)
	return out[:]
}

// coreStepKe1 derives the Follower's Ke1 contribution under stateV2, the
// outer state produced by circuit c2 from stateV1 and p2.
func coreStepKe1(stateV2 OuterHashState, leaderKe1 []byte) (followerKe1 []byte) {
	out := finishHash(stateV2, leaderKe1)
	return out[:]
}

// coreStepKe2 derives the Follower's Ke2 contribution under stateV2.
func coreStepKe2(stateV2 OuterHashState, leaderKe2 []byte) (followerKe2 []byte) {
	out := finishHash(stateV2, leaderKe2)
	return out[:]
}

// coreStepCf1 derives the Follower's client-finished Cf1 contribution.
// Verify-data derivation is keyed on the same master secret as key
// expansion, so it continues to use stateV2; no further circuit call is
// needed once stateV2 exists.
func coreStepCf1(stateV2 OuterHashState, leaderCf1 []byte) (followerCf1 []byte) {
	out := finishHash(stateV2, leaderCf1)
	return out[:]
}

func coreStepCf2(stateV2 OuterHashState, leaderCf2 []byte) (followerCf2 []byte) {
	out := finishHash(stateV2, leaderCf2)
	return out[:]
}

func coreStepSf1(stateV2 OuterHashState, leaderSf1 []byte) (followerSf1 []byte) {
	out := finishHash(stateV2, leaderSf1)
	return out[:]
}

func coreStepSf2(stateV2 OuterHashState, leaderSf2 []byte) (followerSf2 []byte) {
	out := finishHash(stateV2, leaderSf2)
	return out[:]
}
