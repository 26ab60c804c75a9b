package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
)

var (
	genesisHash = merkle.DoubleHash([]byte("genesis"))
	genesisTime = int64(1700000000)
)

type testRelay struct {
	relay    *Relay
	admin    AdminCap
	relayer  RelayerCap
	operator OperatorCap
	now      time.Time
}

func newTestRelay(t *testing.T, opts ...Option) *testRelay {
	t.Helper()
	tr := &testRelay{now: time.Unix(1700001000, 0)}
	opts = append(opts, WithClock(func() time.Time { return tr.now }))
	r, admin, relayer, operator, err := New(NewMemoryHeaderStore(), genesisHash, genesisTime, opts...)
	require.NoError(t, err)
	tr.relay = r
	tr.admin = admin
	tr.relayer = relayer
	tr.operator = operator
	return tr
}

func blockHash(i int) merkle.Hash32 {
	return merkle.DoubleHash([]byte{byte(i), 0xbb})
}

func (tr *testRelay) extend(t *testing.T, n int) []*Header {
	t.Helper()
	var headers []*Header
	prev := genesisHash
	for i := 1; i <= n; i++ {
		h, err := tr.relayer.AppendHeader(blockHash(i), prev, tr.now.Unix(), 0x1d00ffff)
		require.NoError(t, err)
		headers = append(headers, h)
		prev = h.Hash
	}
	return headers
}

func TestNewStartsAtGenesis(t *testing.T) {
	tr := newTestRelay(t)

	tip, err := tr.operator.Tip()
	require.NoError(t, err)
	assert.Equal(t, genesisHash, tip.Hash)
	assert.Equal(t, uint64(0), tip.Height)
	assert.Equal(t, genesisTime, tip.Timestamp)

	confs, err := tr.operator.Confirmations(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), confs)
}

func TestNewRejectsZeroGenesis(t *testing.T) {
	_, _, _, _, err := New(NewMemoryHeaderStore(), merkle.ZeroHash, genesisTime)
	assert.ErrorIs(t, err, ErrZeroHash)
}

func TestAppendHeaderExtendsTip(t *testing.T) {
	tr := newTestRelay(t)

	h, err := tr.relayer.AppendHeader(blockHash(1), genesisHash, tr.now.Unix(), 0x1d00ffff)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Height)

	// Confirmations are 1-indexed at the header's own block.
	confs, err := tr.operator.Confirmations(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), confs)

	confs, err = tr.operator.Confirmations(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), confs)
}

func TestAppendHeaderRejections(t *testing.T) {
	tr := newTestRelay(t)
	tr.extend(t, 2)

	cases := []struct {
		name     string
		hash     merkle.Hash32
		prevHash merkle.Hash32
		ts       int64
		want     error
	}{
		{"zero hash", merkle.ZeroHash, blockHash(2), tr.now.Unix(), ErrZeroHash},
		{"unknown parent", blockHash(9), merkle.DoubleHash([]byte("nope")), tr.now.Unix(), ErrUnknownParent},
		{"parent not tip", blockHash(9), blockHash(1), tr.now.Unix(), ErrStaleParent},
		{"future timestamp", blockHash(9), blockHash(2), tr.now.Add(3 * time.Hour).Unix(), ErrFutureTimestamp},
		{"duplicate hash", blockHash(2), blockHash(2), tr.now.Unix(), ErrDuplicateHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.relayer.AppendHeader(tc.hash, tc.prevHash, tc.ts, 0x1d00ffff)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// Chain is unchanged after the rejections.
	tip, err := tr.operator.Tip()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tip.Height)
}

func TestAppendHeaderAllowsBoundedDrift(t *testing.T) {
	tr := newTestRelay(t)

	// Just inside the 2h drift bound.
	_, err := tr.relayer.AppendHeader(blockHash(1), genesisHash, tr.now.Add(time.Hour).Unix(), 0)
	assert.NoError(t, err)
}

func TestConfirmationsUnknownHeight(t *testing.T) {
	tr := newTestRelay(t)
	_, err := tr.operator.Confirmations(5)
	assert.ErrorIs(t, err, ErrUnknownHeight)
}

func TestHeaderByHeight(t *testing.T) {
	tr := newTestRelay(t)
	headers := tr.extend(t, 3)

	h, err := tr.operator.HeaderByHeight(2)
	require.NoError(t, err)
	assert.Equal(t, headers[1].Hash, h.Hash)
	assert.Equal(t, headers[0].Hash, h.PrevHash)

	_, err = tr.operator.HeaderByHeight(42)
	assert.ErrorIs(t, err, ErrUnknownHeight)
}

func TestEmergencyModeBlocksOperations(t *testing.T) {
	tr := newTestRelay(t)
	tr.extend(t, 1)

	require.NoError(t, tr.admin.Pause())
	assert.True(t, tr.admin.Paused())

	_, err := tr.relayer.AppendHeader(blockHash(2), blockHash(1), tr.now.Unix(), 0)
	assert.ErrorIs(t, err, ErrEmergencyPaused)

	_, err = tr.operator.Confirmations(1)
	assert.ErrorIs(t, err, ErrEmergencyPaused)

	_, err = tr.operator.HeaderByHeight(1)
	assert.ErrorIs(t, err, ErrEmergencyPaused)
}

func TestResumeRequiresCooldown(t *testing.T) {
	tr := newTestRelay(t)
	require.NoError(t, tr.admin.Pause())

	// Immediately after the pause the cooldown blocks the resume.
	assert.ErrorIs(t, tr.admin.Resume(), ErrCooldownActive)

	tr.now = tr.now.Add(23 * time.Hour)
	assert.ErrorIs(t, tr.admin.Resume(), ErrCooldownActive)

	tr.now = tr.now.Add(2 * time.Hour)
	require.NoError(t, tr.admin.Resume())
	assert.False(t, tr.admin.Paused())

	// Appends work again.
	_, err := tr.relayer.AppendHeader(blockHash(1), genesisHash, tr.now.Unix(), 0)
	assert.NoError(t, err)
}

func TestResumeWhenNotPaused(t *testing.T) {
	tr := newTestRelay(t)
	assert.ErrorIs(t, tr.admin.Resume(), ErrNotPaused)
}

func TestZeroValueCapabilitiesRejected(t *testing.T) {
	var admin AdminCap
	var relayer RelayerCap
	var operator OperatorCap

	assert.ErrorIs(t, admin.Pause(), ErrInvalidCap)
	assert.ErrorIs(t, admin.Resume(), ErrInvalidCap)
	_, err := relayer.AppendHeader(blockHash(1), genesisHash, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidCap)
	_, err = operator.Confirmations(0)
	assert.ErrorIs(t, err, ErrInvalidCap)
}

func TestResumeFromExistingStore(t *testing.T) {
	store := NewMemoryHeaderStore()
	tr1 := &testRelay{now: time.Unix(1700001000, 0)}
	_, _, relayer, _, err := New(store, genesisHash, genesisTime, WithClock(func() time.Time { return tr1.now }))
	require.NoError(t, err)
	_, err = relayer.AppendHeader(blockHash(1), genesisHash, tr1.now.Unix(), 0)
	require.NoError(t, err)

	// A relay constructed over a populated store picks up the existing tip
	// instead of re-appending genesis.
	_, _, _, operator, err := New(store, genesisHash, genesisTime)
	require.NoError(t, err)
	tip, err := operator.Tip()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tip.Height)
}

func TestResumeRejectsGenesisMismatch(t *testing.T) {
	store := NewMemoryHeaderStore()
	_, _, relayer, _, err := New(store, genesisHash, genesisTime)
	require.NoError(t, err)
	_, err = relayer.AppendHeader(blockHash(1), genesisHash, genesisTime, 0)
	require.NoError(t, err)

	// A store populated under a different genesis must not be adopted.
	other := merkle.DoubleHash([]byte("another-chain"))
	_, _, _, _, err = New(store, other, genesisTime)
	assert.ErrorIs(t, err, ErrGenesisMismatch)

	// The matching genesis still resumes.
	_, _, _, _, err = New(store, genesisHash, genesisTime)
	require.NoError(t, err)
}

func TestMemoryHeaderStoreIsolation(t *testing.T) {
	store := NewMemoryHeaderStore()
	h := &Header{Hash: blockHash(1), Height: 0, Timestamp: genesisTime}
	require.NoError(t, store.Append(h))

	// Mutating the caller's copy must not affect the stored header.
	h.Timestamp = 0
	got, ok, err := store.ByHeight(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, genesisTime, got.Timestamp)
}
