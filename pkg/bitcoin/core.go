package bitcoin

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
)

// NewCoreClient returns an RPCClient talking to a Bitcoin Core node over
// plain HTTP POST JSON-RPC. Empty user and password disable authentication.
func NewCoreClient(rpcURL, user, pass string) (RPCClient, error) {
	host, useTLS, err := parseRPCURL(rpcURL)
	if err != nil {
		return nil, err
	}

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         host,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   !useTLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bitcoin rpc client: %w", err)
	}
	return client, nil
}

func parseRPCURL(rpcURL string) (host string, useTLS bool, err error) {
	if !strings.Contains(rpcURL, "://") {
		return rpcURL, false, nil
	}
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", false, fmt.Errorf("invalid bitcoin rpc url %q: %w", rpcURL, err)
	}
	switch u.Scheme {
	case "http":
	case "https":
		useTLS = true
	default:
		return "", false, fmt.Errorf("unsupported bitcoin rpc scheme %q", u.Scheme)
	}
	return u.Host, useTLS, nil
}
