package registry

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

// fakeSettlement mints ids [0, minted); owners maps ids to a non-default owner, everyone else owns as bob
type fakeSettlement struct {
	minted      int64
	owners      map[int64]common.Address
	ownerErrs   map[int64]error
	detailErrs  map[int64]error
	balances    map[common.Address]int64
	balanceErr  error
	ownerCalls  atomic.Int64
	detailCalls atomic.Int64

	mu      sync.Mutex
	maxSeen int64
}

func (f *fakeSettlement) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.ownerCalls.Add(1)
	id := tokenID.Int64()

	f.mu.Lock()
	if id > f.maxSeen {
		f.maxSeen = id
	}
	f.mu.Unlock()

	if err, ok := f.ownerErrs[id]; ok {
		return common.Address{}, err
	}
	if id >= f.minted {
		return common.Address{}, models.ErrTokenNotFound
	}
	if owner, ok := f.owners[id]; ok {
		return owner, nil
	}
	return bob, nil
}

func (f *fakeSettlement) GetPosition(_ context.Context, tokenID *big.Int) (models.PositionDetail, error) {
	f.detailCalls.Add(1)
	id := tokenID.Int64()
	if err, ok := f.detailErrs[id]; ok {
		return models.PositionDetail{}, err
	}
	if id >= f.minted {
		return models.PositionDetail{}, models.ErrTokenNotFound
	}
	return models.PositionDetail{
		TotalAmount:       big.NewInt(1_000_000),
		RemainingAmount:   big.NewInt(1_000_000 - id),
		LockedPrice:       big.NewInt(2_000_000_000),
		PurchaseTimestamp: 1_700_000_000,
		ExpiryTimestamp:   1_702_592_000,
		TargetChain:       "arbitrum",
	}, nil
}

func (f *fakeSettlement) BalanceOf(_ context.Context, user common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return big.NewInt(f.balances[user]), nil
}

func tokenIDs(positions []*models.Position) []int64 {
	ids := make([]int64, 0, len(positions))
	for _, p := range positions {
		ids = append(ids, p.TokenID.Int64())
	}
	return ids
}

func TestGetUserPositions(t *testing.T) {
	ctx := context.Background()

	t.Run("stops once all owned positions are found", func(t *testing.T) {
		settlement := &fakeSettlement{
			minted:   2000,
			owners:   map[int64]common.Address{2: alice, 57: alice, 900: alice},
			balances: map[common.Address]int64{alice: 3},
		}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		positions, err := registry.GetUserPositions(ctx, alice, 1000)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 57, 900}, tokenIDs(positions))
		for _, p := range positions {
			assert.Equal(t, alice, p.Owner)
			assert.Equal(t, "arbitrum", p.TargetChain)
		}

		// id 900 sits in the 19th batch of 50, so exactly 19 batches are scanned
		assert.Equal(t, int64(950), settlement.ownerCalls.Load())
		assert.Equal(t, int64(949), settlement.maxSeen)
		assert.Equal(t, int64(3), settlement.detailCalls.Load())
	})

	t.Run("zero balance scans nothing", func(t *testing.T) {
		settlement := &fakeSettlement{minted: 100, balances: map[common.Address]int64{}}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		positions, err := registry.GetUserPositions(ctx, alice, 1000)
		require.NoError(t, err)
		assert.Empty(t, positions)
		assert.NotNil(t, positions)
		assert.Equal(t, int64(0), settlement.ownerCalls.Load())
	})

	t.Run("max scan bounds the work", func(t *testing.T) {
		settlement := &fakeSettlement{
			minted:   5000,
			owners:   map[int64]common.Address{10: alice, 4000: alice},
			balances: map[common.Address]int64{alice: 2},
		}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		positions, err := registry.GetUserPositions(ctx, alice, 120)
		require.NoError(t, err)
		assert.Equal(t, []int64{10}, tokenIDs(positions))
		assert.Equal(t, int64(120), settlement.ownerCalls.Load())
	})

	t.Run("unreadable ids are skipped", func(t *testing.T) {
		settlement := &fakeSettlement{
			minted:    100,
			owners:    map[int64]common.Address{3: alice, 7: alice},
			ownerErrs: map[int64]error{5: errors.New("rpc timeout"), 7: errors.New("rpc timeout")},
			balances:  map[common.Address]int64{alice: 2},
		}
		registry := New(settlement, 4, &logger.EmptyLogger{})

		positions, err := registry.GetUserPositions(ctx, alice, 20)
		require.NoError(t, err)
		assert.Equal(t, []int64{3}, tokenIDs(positions))
		assert.Equal(t, int64(20), settlement.ownerCalls.Load())
	})

	t.Run("balance failure is an error", func(t *testing.T) {
		settlement := &fakeSettlement{balanceErr: errors.New("rpc down")}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		_, err := registry.GetUserPositions(ctx, alice, 1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc down")
	})

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		settlement := &fakeSettlement{
			minted:   100,
			balances: map[common.Address]int64{alice: 1},
		}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := registry.GetUserPositions(cancelled, alice, 1000)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(0), settlement.ownerCalls.Load())
	})

	t.Run("partial last batch", func(t *testing.T) {
		settlement := &fakeSettlement{
			minted:   100,
			owners:   map[int64]common.Address{64: alice},
			balances: map[common.Address]int64{alice: 1},
		}
		registry := New(settlement, 30, &logger.EmptyLogger{})

		positions, err := registry.GetUserPositions(ctx, alice, 65)
		require.NoError(t, err)
		assert.Equal(t, []int64{64}, tokenIDs(positions))
		assert.Equal(t, int64(65), settlement.ownerCalls.Load())
	})
}

func TestGetPosition(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		settlement := &fakeSettlement{minted: 10, owners: map[int64]common.Address{4: alice}}
		registry := New(settlement, DefaultBatchSize, &logger.EmptyLogger{})

		position, err := registry.GetPosition(ctx, big.NewInt(4))
		require.NoError(t, err)
		assert.Equal(t, alice, position.Owner)
		assert.Equal(t, "999996", position.RemainingAmount.String())
	})

	tests := []struct {
		name       string
		settlement *fakeSettlement
	}{
		{"never minted", &fakeSettlement{minted: 3}},
		{"owner lookup transient failure", &fakeSettlement{minted: 10, ownerErrs: map[int64]error{4: errors.New("timeout")}}},
		{"detail lookup failure", &fakeSettlement{minted: 10, detailErrs: map[int64]error{4: models.ErrMalformedResponse}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := New(tt.settlement, DefaultBatchSize, &logger.EmptyLogger{})
			_, err := registry.GetPosition(ctx, big.NewInt(4))
			assert.ErrorIs(t, err, ErrPositionNotFound)
		})
	}
}
