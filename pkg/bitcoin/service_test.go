package bitcoin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sova-network/sova-sentinel/pkg/bitcoin"
)

const testTxid = "73bd2184f6e78e7ca5cf9d5405e039b9bd9a876d7996b0261e5e9c2ffe5f51e5"

var errConnRefused = errors.New("dial tcp 127.0.0.1:18443: connection refused")

type mockRPCClient struct {
	mtx sync.Mutex

	attempts         int
	succeedAtAttempt int // -1 means never succeed
	err              error
	confirmations    uint64
	blockCount       int64
}

func newMockRPCClient(succeedAt int, err error) *mockRPCClient {
	return &mockRPCClient{
		succeedAtAttempt: succeedAt,
		err:              err,
		confirmations:    6,
		blockCount:       118,
	}
}

func (m *mockRPCClient) GetRawTransactionVerbose(
	_ *chainhash.Hash,
) (*btcjson.TxRawResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	attempt := m.attempts
	m.attempts++
	if m.succeedAtAttempt >= 0 && attempt >= m.succeedAtAttempt {
		return &btcjson.TxRawResult{
			Txid:          testTxid,
			Confirmations: m.confirmations,
		}, nil
	}
	return nil, m.err
}

func (m *mockRPCClient) GetBlockCount() (int64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	attempt := m.attempts
	m.attempts++
	if m.succeedAtAttempt >= 0 && attempt >= m.succeedAtAttempt {
		return m.blockCount, nil
	}
	return 0, m.err
}

func (m *mockRPCClient) callCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.attempts
}

func newTestService(client bitcoin.RPCClient, maxRetries int) bitcoin.Service {
	return bitcoin.NewService(client, bitcoin.ServiceOpts{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
	})
}

func TestConfirmationDepthRetryScenarios(t *testing.T) {
	tests := []struct {
		name          string
		succeedAt     int
		maxRetries    int
		shouldSucceed bool
	}{
		{"first attempt", 0, 5, true},
		{"third attempt", 2, 5, true},
		{"last allowed attempt", 5, 5, true},
		{"one attempt too late", 6, 5, false},
		{"never succeeds", -1, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockRPCClient(tt.succeedAt, errConnRefused)
			svc := newTestService(client, tt.maxRetries)

			depth, err := svc.ConfirmationDepth(context.Background(), testTxid)
			if tt.shouldSucceed {
				require.NoError(t, err)
				assert.Equal(t, uint64(6), depth)
			} else {
				var unreachable *bitcoin.NodeUnreachableError
				require.ErrorAs(t, err, &unreachable)
				assert.Equal(t, tt.maxRetries+1, unreachable.Attempts)
				assert.Equal(t, tt.maxRetries+1, client.callCount())
			}
		})
	}
}

func TestProtocolErrorNotRetried(t *testing.T) {
	rpcErr := &btcjson.RPCError{
		Code:    btcjson.ErrRPCInvalidParameter,
		Message: "invalid parameter",
	}
	client := newMockRPCClient(-1, rpcErr)
	svc := newTestService(client, 5)

	_, err := svc.ConfirmationDepth(context.Background(), testTxid)

	var got *btcjson.RPCError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, rpcErr.Code, got.Code)
	assert.Equal(t, 1, client.callCount())
}

func TestUnknownTransactionReportsZeroDepth(t *testing.T) {
	rpcErr := &btcjson.RPCError{
		Code:    btcjson.ErrRPCNoTxInfo,
		Message: "No such mempool or blockchain transaction",
	}
	client := newMockRPCClient(-1, rpcErr)
	svc := newTestService(client, 5)

	depth, err := svc.ConfirmationDepth(context.Background(), testTxid)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), depth)
	assert.Equal(t, 1, client.callCount())
}

func TestInvalidTxid(t *testing.T) {
	client := newMockRPCClient(0, nil)
	svc := newTestService(client, 5)

	_, err := svc.ConfirmationDepth(context.Background(), "not-a-txid")
	assert.ErrorIs(t, err, bitcoin.ErrInvalidTxid)
	assert.Equal(t, 0, client.callCount())
}

func TestChainHeight(t *testing.T) {
	client := newMockRPCClient(0, nil)
	svc := newTestService(client, 5)

	height, err := svc.ChainHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(118), height)
}

func TestDeadlineDistinctFromUnreachable(t *testing.T) {
	client := newMockRPCClient(-1, errConnRefused)
	svc := bitcoin.NewService(client, bitcoin.ServiceOpts{
		MaxRetries: 50,
		BaseDelay:  time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := svc.ConfirmationDepth(ctx, testTxid)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var unreachable *bitcoin.NodeUnreachableError
	assert.False(t, errors.As(err, &unreachable))
}
