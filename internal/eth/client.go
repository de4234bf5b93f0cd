// Package eth reads weighted pool state from an Ethereum JSON-RPC node.
package eth

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to the node at url, retrying up to attempts times. Each
// attempt is bounded by timeout.
func Dial(ctx context.Context, url string, timeout time.Duration, attempts uint) (*ethclient.Client, error) {
	var client *ethclient.Client
	err := retry.Do(func() error {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		c, err := ethclient.DialContext(dialCtx, url)
		if err != nil {
			return err
		}
		client = c
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
