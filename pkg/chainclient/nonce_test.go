package chainclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
)

type fakeNonceSource struct {
	nonce uint64
	err   error
	calls int
}

func (f *fakeNonceSource) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.calls++
	return f.nonce, f.err
}

func TestNonceTracker(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	t.Run("sequential reservations start from chain nonce", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 7}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		for expected := uint64(7); expected < 10; expected++ {
			nonce, err := tracker.Reserve(ctx, src, account)
			require.NoError(t, err)
			assert.Equal(t, expected, nonce)
		}
		assert.Equal(t, 1, src.calls, "chain nonce is read once per sync interval")
		assert.Equal(t, 3, tracker.PendingCount())
	})

	t.Run("releasing the latest nonce rolls back", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 0}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		n0, _ := tracker.Reserve(ctx, src, account)
		n1, _ := tracker.Reserve(ctx, src, account)
		tracker.Release(n1)

		again, err := tracker.Reserve(ctx, src, account)
		require.NoError(t, err)
		assert.Equal(t, n1, again)
		assert.Equal(t, uint64(0), n0)
	})

	t.Run("released gap is reused before new nonces", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 0}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		n0, _ := tracker.Reserve(ctx, src, account)
		_, _ = tracker.Reserve(ctx, src, account)
		tracker.Release(n0)

		reused, err := tracker.Reserve(ctx, src, account)
		require.NoError(t, err)
		assert.Equal(t, n0, reused)

		next, err := tracker.Reserve(ctx, src, account)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next)
	})

	t.Run("confirm clears pending", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 3}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		nonce, _ := tracker.Reserve(ctx, src, account)
		tracker.Track(nonce, common.HexToHash("0x01"))
		tracker.Confirm(nonce)
		assert.Equal(t, 0, tracker.PendingCount())

		// releasing a confirmed nonce is ignored
		tracker.Release(nonce)
		next, _ := tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(4), next)
	})

	t.Run("resync only moves forward", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 5}
		tracker := NewNonceTracker(&logger.EmptyLogger{})
		now := time.Unix(1_700_000_000, 0)
		tracker.now = func() time.Time { return now }

		n, _ := tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(5), n)

		now = now.Add(DefaultNonceSyncInterval + time.Second)
		src.nonce = 2
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(6), n)

		now = now.Add(DefaultNonceSyncInterval + time.Second)
		src.nonce = 20
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(20), n)
		assert.Equal(t, 3, src.calls)
	})

	t.Run("invalidate adopts lower chain nonce", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 10}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		n, _ := tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(10), n)
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(11), n)
		tracker.Release(10)

		src.nonce = 8
		tracker.Invalidate()
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(8), n)
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(9), n)
		assert.Equal(t, 2, src.calls)
	})

	t.Run("abandoned nonce is not reused", func(t *testing.T) {
		src := &fakeNonceSource{nonce: 5}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		n, _ := tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(5), n)
		tracker.Abandon(5)
		assert.Equal(t, 0, tracker.PendingCount())

		// the node took the transaction, so its pending nonce moved on
		src.nonce = 6
		n, _ = tracker.Reserve(ctx, src, account)
		assert.Equal(t, uint64(6), n)
		assert.Equal(t, 2, src.calls)
	})

	t.Run("source error", func(t *testing.T) {
		src := &fakeNonceSource{err: errors.New("rpc down")}
		tracker := NewNonceTracker(&logger.EmptyLogger{})

		_, err := tracker.Reserve(ctx, src, account)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc down")
		assert.Equal(t, 0, tracker.PendingCount())
	})
}
