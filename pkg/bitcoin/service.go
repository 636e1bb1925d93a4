package bitcoin

import (
	"context"
	"errors"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/sova-network/sova-sentinel/pkg/backoff"
	"github.com/sova-network/sova-sentinel/pkg/circuitbreaker"
)

// ServiceOpts tunes the retry behavior of the Service.
type ServiceOpts struct {
	// MaxRetries is the number of retries after the initial attempt, for
	// connectivity failures only.
	MaxRetries int
	// BaseDelay is the base of the exponential retry backoff.
	BaseDelay time.Duration
	// RequestsPerSecond rate-limits outbound RPC calls, 0 means unlimited.
	RequestsPerSecond int
}

type service struct {
	client  RPCClient
	retrier *backoff.Retrier
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter

	maxRetries int
}

// NewService wraps the given RPC backend with retry, circuit-breaking and
// rate-limiting, returning a Service.
func NewService(client RPCClient, opts ServiceOpts) Service {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 100 * time.Millisecond
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}
	return &service{
		client: client,
		retrier: backoff.NewRetrier(backoff.Policy{
			BaseDelay:  opts.BaseDelay,
			MaxRetries: opts.MaxRetries,
		}),
		breaker:    circuitbreaker.NewCircuitBreaker("bitcoin-rpc"),
		limiter:    limiter,
		maxRetries: opts.MaxRetries,
	}
}

func (s *service) ConfirmationDepth(ctx context.Context, txid string) (uint64, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return 0, ErrInvalidTxid
	}

	var depth uint64
	err = s.call(ctx, func() error {
		res, err := s.client.GetRawTransactionVerbose(hash)
		if err != nil {
			var rpcErr *btcjson.RPCError
			if errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo {
				// The node does not know the transaction yet: zero
				// confirmations, not a failure.
				depth = 0
				return nil
			}
			return err
		}
		depth = res.Confirmations
		return nil
	})
	return depth, err
}

func (s *service) ChainHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.call(ctx, func() error {
		count, err := s.client.GetBlockCount()
		if err != nil {
			return err
		}
		height = uint64(count)
		return nil
	})
	return height, err
}

// call runs op through the rate limiter, circuit breaker and retry loop, and
// maps retry exhaustion to NodeUnreachableError. Context expiry surfaces the
// context's own error, telling a caller-side timeout apart from a dead node.
func (s *service) call(ctx context.Context, op func() error) error {
	err := s.retrier.Do(ctx, func() error {
		s.limiter.Take()
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, op()
		})
		return err
	}, IsConnectivityError)

	if errors.Is(err, backoff.ErrMaxRetriesExceeded) {
		return &NodeUnreachableError{Attempts: s.maxRetries + 1, Last: err}
	}
	return err
}
