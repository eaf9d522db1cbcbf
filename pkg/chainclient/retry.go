package chainclient

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

const (
	maxSendAttempts = 3
	baseSendBackoff = 500 * time.Millisecond
	maxSendBackoff  = 5 * time.Second
)

// sendOutcome says what a failed submission proves about the transaction
type sendOutcome int

const (
	// sendRetryable: the node rejected the transaction, a fresh nonce or gas price may fix it
	sendRetryable sendOutcome = iota
	// sendRejected: the node rejected the transaction for good
	sendRejected
	// sendAmbiguous: the transaction may have reached the pool
	sendAmbiguous
)

// send error kinds, also used as metric labels
const (
	sendErrNonce     = "nonce_error"
	sendErrGas       = "gas_error"
	sendErrBalance   = "insufficient_balance"
	sendErrContract  = "contract_error"
	sendErrNotSent   = "not_sent"
	sendErrAmbiguous = "ambiguous_error"
)

// classifySendError decides whether a failed submission may be retried. Only errors
// that prove the node refused the transaction are retryable. Anything else, including
// timeouts, dropped connections and cancellation, may have left it in the pool.
func classifySendError(err error) (sendOutcome, string) {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "nonce too low", "nonce too high"):
		return sendRetryable, sendErrNonce
	case containsAny(msg, "gas price too low", "replacement transaction underpriced",
		"transaction underpriced", "max fee per gas less than block base fee"):
		return sendRetryable, sendErrGas
	case containsAny(msg, "insufficient funds"):
		return sendRejected, sendErrBalance
	case containsAny(msg, "execution reverted", "invalid opcode", "gas required exceeds allowance", "no contract code"):
		return sendRejected, sendErrContract
	}
	return sendAmbiguous, sendErrAmbiguous
}

type submitMarkerKey struct{}

// withSubmitMarker returns a context that records whether SendTransaction was reached
func withSubmitMarker(ctx context.Context) (context.Context, *atomic.Bool) {
	submitted := new(atomic.Bool)
	return context.WithValue(ctx, submitMarkerKey{}, submitted), submitted
}

// submitTracking marks the call context once a transaction is handed to the node.
// Failures before that point (gas estimation, signing) provably sent nothing.
type submitTracking struct {
	Backend
}

func (b submitTracking) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if submitted, ok := ctx.Value(submitMarkerKey{}).(*atomic.Bool); ok {
		submitted.Store(true)
	}
	return b.Backend.SendTransaction(ctx, tx)
}

// sendBackoff returns the wait before retry number attempt (0-based), doubling up to maxSendBackoff
func sendBackoff(attempt int) time.Duration {
	backoff := baseSendBackoff << attempt
	if attempt >= 16 || backoff > maxSendBackoff {
		return maxSendBackoff
	}
	return backoff
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
