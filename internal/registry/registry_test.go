package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
)

const testCircuit = "spv-inclusion-v1"

// fakeVerifier answers from a canned map keyed by the first public input,
// defaulting to valid.
type fakeVerifier struct {
	invalid map[string]bool
	err     error
	calls   int
}

func (v *fakeVerifier) Verify(_ context.Context, _ string, _ []byte, publicInputs []string) (bool, error) {
	v.calls++
	if v.err != nil {
		return false, v.err
	}
	if len(publicInputs) > 0 && v.invalid[publicInputs[0]] {
		return false, nil
	}
	return true, nil
}

type testEnv struct {
	registry *Registry
	verifier *fakeVerifier
	now      time.Time
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		verifier: &fakeVerifier{invalid: make(map[string]bool)},
		now:      time.Unix(1700000000, 0),
	}
	opts = append(opts, WithClock(func() time.Time { return env.now }))
	env.registry = New(env.verifier, opts...)
	require.NoError(t, env.registry.RegisterCircuit(CircuitConfig{
		CircuitID:          testCircuit,
		VerificationKeyRef: "vk/spv-inclusion-v1",
		MaxPublicInputs:    4,
		ExpectedProofSize:  128,
		Active:             true,
	}))
	return env
}

func proofBytes(seed byte) []byte {
	b := make([]byte, 128)
	for i := range b {
		b[i] = seed
	}
	return b
}

func (env *testEnv) submit(t *testing.T, seed byte, subject string, inputs ...string) merkle.Hash32 {
	t.Helper()
	hash, err := env.registry.SubmitProof(testCircuit, proofBytes(seed), inputs, subject)
	require.NoError(t, err)
	return hash
}

func TestSubmitProofStoresRecord(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a", "root", "leaf")

	record, ok := env.registry.Record(hash)
	require.True(t, ok)
	assert.Equal(t, testCircuit, record.CircuitID)
	assert.Equal(t, "tx-a", record.SubjectTxHash)
	assert.False(t, record.Verified)
	assert.Equal(t, env.now, record.SubmittedAt)
	assert.Equal(t, []string{"root", "leaf"}, record.PublicInputs)
}

func TestSubmitProofValidation(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.RegisterCircuit(CircuitConfig{
		CircuitID:         "dormant",
		ExpectedProofSize: 128,
		MaxPublicInputs:   4,
		Active:            false,
	}))

	cases := []struct {
		name    string
		circuit string
		proof   []byte
		inputs  []string
		want    error
	}{
		{"unknown circuit", "missing", proofBytes(1), nil, ErrCircuitNotFound},
		{"inactive circuit", "dormant", proofBytes(1), nil, ErrCircuitInactive},
		{"proof too short", testCircuit, make([]byte, 64), nil, ErrProofSizeMismatch},
		{"proof too long", testCircuit, make([]byte, 256), nil, ErrProofSizeMismatch},
		{"too many inputs", testCircuit, proofBytes(1), []string{"a", "b", "c", "d", "e"}, ErrTooManyInputs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.registry.SubmitProof(tc.circuit, tc.proof, tc.inputs, "tx-x")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitProofCooldown(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, 1, "tx-a")

	// A second submission for the same subject inside the cooldown is
	// rejected even though the proof content differs.
	env.now = env.now.Add(30 * time.Second)
	_, err := env.registry.SubmitProof(testCircuit, proofBytes(2), nil, "tx-a")
	assert.ErrorIs(t, err, ErrCooldownActive)

	// A different subject is unaffected.
	_, err = env.registry.SubmitProof(testCircuit, proofBytes(2), nil, "tx-b")
	assert.NoError(t, err)

	// After the cooldown the same subject succeeds.
	env.now = env.now.Add(31 * time.Second)
	_, err = env.registry.SubmitProof(testCircuit, proofBytes(2), nil, "tx-a")
	assert.NoError(t, err)
}

func TestSubmitProofDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, 1, "tx-a")

	// Identical content after the cooldown hashes to the same identity and
	// is rejected outright; the hash is timestamp-independent.
	env.now = env.now.Add(2 * time.Minute)
	_, err := env.registry.SubmitProof(testCircuit, proofBytes(1), nil, "tx-a")
	assert.ErrorIs(t, err, ErrDuplicateProof)
}

func TestComputeProofHashUnambiguous(t *testing.T) {
	// Shifting bytes between adjacent components must change the hash.
	a := ComputeProofHash("c", []byte("ab"), []string{"cd"}, "tx")
	b := ComputeProofHash("c", []byte("abc"), []string{"d"}, "tx")
	assert.NotEqual(t, a, b)

	c := ComputeProofHash("c", []byte("ab"), []string{"c", "d"}, "tx")
	assert.NotEqual(t, a, c)
}

func TestVerifyProofRecordsResult(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a", "ok")

	valid, err := env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, valid)

	record, ok := env.registry.Record(hash)
	require.True(t, ok)
	assert.True(t, record.Verified)
	assert.True(t, record.Valid)
	assert.Equal(t, "external-verifier", record.VerifiedBy)
}

func TestVerifyProofInvalidResult(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.invalid["bad"] = true
	hash := env.submit(t, 1, "tx-a", "bad")

	valid, err := env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)
	assert.False(t, valid)

	record, _ := env.registry.Record(hash)
	assert.True(t, record.Verified)
	assert.False(t, record.Valid)
}

func TestVerifyProofExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a")

	_, err := env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)

	_, err = env.registry.VerifyProof(context.Background(), hash)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Equal(t, 1, env.verifier.calls)
}

func TestVerifyProofTimeout(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a")

	env.now = env.now.Add(DefaultVerificationTimeout + time.Second)
	_, err := env.registry.VerifyProof(context.Background(), hash)
	assert.ErrorIs(t, err, ErrVerificationExpired)

	// The once-only transition was not consumed, but the window has passed
	// for good: the record stays unverified.
	record, _ := env.registry.Record(hash)
	assert.False(t, record.Verified)
}

func TestVerifyProofUnknownHash(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.registry.VerifyProof(context.Background(), merkle.DoubleHash([]byte("nope")))
	assert.ErrorIs(t, err, ErrProofNotFound)
}

func TestVerifyProofVerifierErrorLeavesRecordUnverified(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a")

	env.verifier.err = errors.New("backend unreachable")
	_, err := env.registry.VerifyProof(context.Background(), hash)
	require.Error(t, err)

	// A collaborator failure is not a verification result; a retry within
	// the window still works.
	env.verifier.err = nil
	valid, err := env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestBatchVerifyProofs(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.invalid["bad"] = true

	var hashes []merkle.Hash32
	for i := 0; i < 3; i++ {
		input := "ok"
		if i == 1 {
			input = "bad"
		}
		hashes = append(hashes, env.submit(t, byte(i+1), fmt.Sprintf("tx-%d", i), input))
	}

	results, err := env.registry.BatchVerifyProofs(context.Background(), hashes)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, results)

	for _, hash := range hashes {
		record, _ := env.registry.Record(hash)
		assert.True(t, record.Verified)
	}
}

func TestBatchVerifyProofsAtomicOnBadItem(t *testing.T) {
	env := newTestEnv(t)
	good := env.submit(t, 1, "tx-a")
	expired := env.submit(t, 2, "tx-b")

	// Let only the second record expire, then batch both: the whole call
	// fails and the good record must stay untouched.
	env.now = env.now.Add(DefaultVerificationTimeout + time.Second)
	fresh, err := env.registry.SubmitProof(testCircuit, proofBytes(3), nil, "tx-c")
	require.NoError(t, err)

	_, err = env.registry.BatchVerifyProofs(context.Background(), []merkle.Hash32{fresh, expired})
	assert.ErrorIs(t, err, ErrVerificationExpired)

	record, _ := env.registry.Record(fresh)
	assert.False(t, record.Verified)
	record, _ = env.registry.Record(good)
	assert.False(t, record.Verified)
	assert.Zero(t, env.verifier.calls)
}

func TestBatchVerifyProofsBounds(t *testing.T) {
	env := newTestEnv(t, WithMaxBatchSize(2))

	_, err := env.registry.BatchVerifyProofs(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	hashes := []merkle.Hash32{
		env.submit(t, 1, "tx-a"),
		env.submit(t, 2, "tx-b"),
		env.submit(t, 3, "tx-c"),
	}
	_, err = env.registry.BatchVerifyProofs(context.Background(), hashes)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestBatchVerifyProofsRejectsRepeatedHash(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a")

	_, err := env.registry.BatchVerifyProofs(context.Background(), []merkle.Hash32{hash, hash})
	assert.ErrorIs(t, err, ErrDuplicateProof)

	record, _ := env.registry.Record(hash)
	assert.False(t, record.Verified)
}

func TestStatsCounters(t *testing.T) {
	env := newTestEnv(t)
	hash := env.submit(t, 1, "tx-a")
	env.submit(t, 2, "tx-b")

	_, err := env.registry.SubmitProof(testCircuit, proofBytes(3), nil, "tx-a")
	require.ErrorIs(t, err, ErrCooldownActive)

	_, err = env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)

	stats := env.registry.Stats()
	assert.Equal(t, uint64(2), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Verified)
	assert.Equal(t, uint64(1), stats.Rejected)
}

func TestSetCircuitActive(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.SetCircuitActive(testCircuit, false))

	_, err := env.registry.SubmitProof(testCircuit, proofBytes(1), nil, "tx-a")
	assert.ErrorIs(t, err, ErrCircuitInactive)

	require.NoError(t, env.registry.SetCircuitActive(testCircuit, true))
	_, err = env.registry.SubmitProof(testCircuit, proofBytes(1), nil, "tx-a")
	assert.NoError(t, err)

	assert.ErrorIs(t, env.registry.SetCircuitActive("missing", true), ErrCircuitNotFound)
}

func TestRegisterCircuitValidation(t *testing.T) {
	env := newTestEnv(t)
	assert.Error(t, env.registry.RegisterCircuit(CircuitConfig{ExpectedProofSize: 1}))
	assert.Error(t, env.registry.RegisterCircuit(CircuitConfig{CircuitID: "x"}))
	assert.ErrorIs(t, env.registry.RegisterCircuit(CircuitConfig{
		CircuitID:         testCircuit,
		ExpectedProofSize: 128,
	}), ErrDuplicateCircuit)
}

type recordingSink struct {
	submitted []merkle.Hash32
	verified  []merkle.Hash32
}

func (s *recordingSink) ProofSubmitted(_ context.Context, record *ProofRecord) error {
	s.submitted = append(s.submitted, record.ProofHash)
	return nil
}

func (s *recordingSink) ProofVerified(_ context.Context, record *ProofRecord) error {
	s.verified = append(s.verified, record.ProofHash)
	return nil
}

func TestRecordSinkNotified(t *testing.T) {
	sink := &recordingSink{}
	env := newTestEnv(t, WithRecordSink(sink))

	hash := env.submit(t, 1, "tx-a")
	_, err := env.registry.VerifyProof(context.Background(), hash)
	require.NoError(t, err)

	assert.Equal(t, []merkle.Hash32{hash}, sink.submitted)
	assert.Equal(t, []merkle.Hash32{hash}, sink.verified)
}
