package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"muse-workers/internal/common/errors"
)

// Client owns the Zeebe gateway connection shared by every worker.
type Client struct {
	zb     zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
}

// NewClientWithConfig dials the gateway and probes its topology once, so a
// wrong address fails at startup instead of on the first job poll.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zb, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zb: zb, config: config}
	if err := c.HealthCheck(context.Background()); err != nil {
		zb.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Zeebe() zbc.Client {
	return c.zb
}

func (c *Client) Close() error {
	return c.zb.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.zb.NewTopologyCommand().Send(ctx); err != nil {
		return mapZeebeError(err, c.config.GatewayAddress)
	}
	return nil
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, gateway string) error {
	if isRetryableZeebeError(err) {
		return errors.NewTransientTransportError("zeebe:"+gateway, 0, err)
	}
	return errors.NewInternalError(fmt.Errorf("zeebe %s: %w", gateway, err))
}
