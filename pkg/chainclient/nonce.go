package chainclient

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
)

// DefaultNonceSyncInterval is how long a locally tracked nonce is trusted before resyncing with the chain
const DefaultNonceSyncInterval = 5 * time.Minute

// NonceSource reads the next pending nonce of an account
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceTracker hands out nonces for the relayer account so concurrent requests
// sharing the one credential never collide
type NonceTracker struct {
	mu           sync.Mutex
	next         uint64
	pending      map[uint64]common.Hash
	released     []uint64
	lastSync     time.Time
	forceSync    bool
	syncInterval time.Duration
	now          func() time.Time
	logger       logger.Logger
}

// NewNonceTracker creates a new nonce tracker
func NewNonceTracker(log logger.Logger) *NonceTracker {
	return &NonceTracker{
		pending:      make(map[uint64]common.Hash),
		syncInterval: DefaultNonceSyncInterval,
		now:          time.Now,
		logger:       log,
	}
}

// Reserve returns the next nonce to use. Nonces given back with Release are reused first.
func (n *NonceTracker) Reserve(ctx context.Context, src NonceSource, account common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.released) > 0 {
		nonce := n.released[0]
		n.released = n.released[1:]
		n.pending[nonce] = common.Hash{}
		return nonce, nil
	}

	if n.lastSync.IsZero() || n.now().Sub(n.lastSync) > n.syncInterval {
		chainNonce, err := src.PendingNonceAt(ctx, account)
		if err != nil {
			return 0, fmt.Errorf("failed to get pending nonce: %w", err)
		}
		if chainNonce > n.next || (n.forceSync && chainNonce != n.next) {
			n.logger.Debug("Updating nonce: %d -> %d", n.next, chainNonce)
			n.next = chainNonce
		}
		n.lastSync = n.now()
		n.forceSync = false
	}

	nonce := n.next
	n.next++
	n.pending[nonce] = common.Hash{}
	metrics.PendingTransactions.Set(float64(len(n.pending)))
	return nonce, nil
}

// Track records the transaction sent with a reserved nonce
func (n *NonceTracker) Track(nonce uint64, txHash common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[nonce] = txHash
}

// Confirm marks the nonce as consumed on chain
func (n *NonceTracker) Confirm(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pending, nonce)
	metrics.PendingTransactions.Set(float64(len(n.pending)))
}

// Release gives back a nonce whose transaction never reached the network
func (n *NonceTracker) Release(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.pending[nonce]; !ok {
		n.logger.Debug("Release of untracked nonce %d ignored", nonce)
		return
	}
	delete(n.pending, nonce)
	metrics.PendingTransactions.Set(float64(len(n.pending)))

	if nonce+1 == n.next {
		n.next = nonce
		return
	}
	n.released = append(n.released, nonce)
	sort.Slice(n.released, func(i, j int) bool { return n.released[i] < n.released[j] })
}

// Abandon forgets a nonce whose transaction may or may not have reached the pool.
// The nonce is never handed out again from local state; the next Reserve resyncs
// with the chain, which knows whether it was used.
func (n *NonceTracker) Abandon(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pending, nonce)
	metrics.PendingTransactions.Set(float64(len(n.pending)))
	n.released = nil
	n.lastSync = time.Time{}
	n.forceSync = true
}

// Invalidate drops released nonces and makes the next Reserve adopt the chain's
// pending nonce, even when it is lower than the local one
func (n *NonceTracker) Invalidate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.released = nil
	n.lastSync = time.Time{}
	n.forceSync = true
}

// PendingCount returns the number of reserved nonces not yet confirmed or released
func (n *NonceTracker) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
