package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/metrics"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
)

// DefaultBatchSize is the number of token ids checked concurrently during a scan
const DefaultBatchSize = 50

// ErrPositionNotFound is returned when a token id cannot be resolved to a position
var ErrPositionNotFound = errors.New("position not found")

// Settlement is the read side of the settlement collaborator
type Settlement interface {
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	GetPosition(ctx context.Context, tokenID *big.Int) (models.PositionDetail, error)
	BalanceOf(ctx context.Context, user common.Address) (*big.Int, error)
}

// Registry is a read-through view of positions held on the settlement contract.
// Nothing is cached; every call goes to the collaborator.
type Registry struct {
	settlement Settlement
	batchSize  int
	logger     logger.Logger
}

// New creates a new registry. A non-positive batch size falls back to DefaultBatchSize.
func New(settlement Settlement, batchSize int, log logger.Logger) *Registry {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Registry{
		settlement: settlement,
		batchSize:  batchSize,
		logger:     log,
	}
}

// GetPosition returns the position for a token id. Any lookup failure yields ErrPositionNotFound.
func (r *Registry) GetPosition(ctx context.Context, tokenID *big.Int) (*models.Position, error) {
	owner, err := r.settlement.OwnerOf(ctx, tokenID)
	if err != nil {
		r.logLookupFailure("owner", tokenID, err)
		return nil, ErrPositionNotFound
	}

	detail, err := r.settlement.GetPosition(ctx, tokenID)
	if err != nil {
		r.logLookupFailure("detail", tokenID, err)
		return nil, ErrPositionNotFound
	}

	return &models.Position{
		TokenID:        new(big.Int).Set(tokenID),
		Owner:          owner,
		PositionDetail: detail,
	}, nil
}

// GetUserPositions enumerates the positions owned by user among token ids [0, maxScan).
// Ids are checked concurrently in batches, batches run one after another, and the
// scan stops as soon as every position counted by balanceOf has been found.
func (r *Registry) GetUserPositions(ctx context.Context, user common.Address, maxScan int) ([]*models.Position, error) {
	balance, err := r.settlement.BalanceOf(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read position count for %s: %w", user.Hex(), err)
	}

	positions := make([]*models.Position, 0)
	if balance.Sign() == 0 || maxScan <= 0 {
		return positions, nil
	}

	for start := 0; start < maxScan; start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("position scan interrupted at id %d: %w", start, err)
		}

		end := min(start+r.batchSize, maxScan)
		positions = append(positions, r.scanBatch(ctx, user, start, end)...)

		if big.NewInt(int64(len(positions))).Cmp(balance) >= 0 {
			r.logger.Debug("Found all %d positions of %s after scanning %d ids", len(positions), user.Hex(), end)
			return positions, nil
		}
	}

	if big.NewInt(int64(len(positions))).Cmp(balance) < 0 {
		r.logger.Notice("Scan of %d ids found %d of %s positions for %s", maxScan, len(positions), balance, user.Hex())
	}
	return positions, nil
}

// scanBatch checks ids [start, end) concurrently and returns the owned positions in id order
func (r *Registry) scanBatch(ctx context.Context, user common.Address, start, end int) []*models.Position {
	results := make([]*models.Position, end-start)

	var g errgroup.Group
	for id := start; id < end; id++ {
		g.Go(func() error {
			results[id-start] = r.checkToken(ctx, user, big.NewInt(int64(id)))
			return nil
		})
	}
	_ = g.Wait()

	owned := make([]*models.Position, 0)
	for _, p := range results {
		if p != nil {
			owned = append(owned, p)
		}
	}
	return owned
}

// checkToken returns the position if user owns tokenID. Unreadable ids are treated as not owned.
func (r *Registry) checkToken(ctx context.Context, user common.Address, tokenID *big.Int) *models.Position {
	owner, err := r.settlement.OwnerOf(ctx, tokenID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			metrics.ScanLookups.WithLabelValues("missing").Inc()
		} else {
			metrics.ScanLookups.WithLabelValues("error").Inc()
			r.logger.Debug("Skipping token %s during scan: %v", tokenID, err)
		}
		return nil
	}
	if owner != user {
		metrics.ScanLookups.WithLabelValues("other").Inc()
		return nil
	}
	metrics.ScanLookups.WithLabelValues("owned").Inc()

	detail, err := r.settlement.GetPosition(ctx, tokenID)
	if err != nil {
		r.logLookupFailure("detail", tokenID, err)
		return nil
	}
	return &models.Position{
		TokenID:        tokenID,
		Owner:          owner,
		PositionDetail: detail,
	}
}

func (r *Registry) logLookupFailure(what string, tokenID *big.Int, err error) {
	if errors.Is(err, models.ErrTokenNotFound) {
		r.logger.Debug("Token %s does not exist (%s lookup)", tokenID, what)
		return
	}
	r.logger.Error("Token %s %s lookup failed: %v", tokenID, what, err)
}
