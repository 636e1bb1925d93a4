package bitcoin

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrInvalidTxid is returned when a txid is not a valid transaction hash.
var ErrInvalidTxid = errors.New("invalid bitcoin txid")

// NodeUnreachableError reports that every RPC attempt against the Bitcoin
// node failed with a connectivity error.
type NodeUnreachableError struct {
	Attempts int
	Last     error
}

func (e *NodeUnreachableError) Error() string {
	return fmt.Sprintf("bitcoin node is unreachable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *NodeUnreachableError) Unwrap() error {
	return e.Last
}

// Service provides the Bitcoin chain queries needed to resolve slot locks.
// Implementations retry connectivity failures with exponential backoff;
// protocol errors returned by the node surface immediately.
type Service interface {
	// ConfirmationDepth returns the number of confirmations of the given
	// transaction. An unknown transaction reports depth 0.
	ConfirmationDepth(ctx context.Context, txid string) (uint64, error)
	// ChainHeight returns the current Bitcoin chain height.
	ChainHeight(ctx context.Context) (uint64, error)
}

// RPCClient is the low-level bitcoind backend the Service queries.
type RPCClient interface {
	GetRawTransactionVerbose(txid *chainhash.Hash) (*btcjson.TxRawResult, error)
	GetBlockCount() (int64, error)
}

// IsConnectivityError reports whether the given RPC failure is a transport
// problem (timeout, refused connection, DNS) rather than a well-formed error
// returned by the node. Only connectivity failures are worth retrying.
func IsConnectivityError(err error) bool {
	var rpcErr *btcjson.RPCError
	return !errors.As(err, &rpcErr)
}
