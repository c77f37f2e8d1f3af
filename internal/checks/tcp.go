package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

// TCP reports whether a connection to host:port can be opened.
type TCP struct {
	kind    status.Kind
	address string
	timeout time.Duration
}

// NewTCP dials the plugin host and port. The "timeout" param bounds the dial.
func NewTCP(kind status.Kind, cfg plugin.Config) (plugin.Measurer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: tcp: empty host", plugin.ErrConfiguration)
	}
	port := cfg.Port
	if port <= 0 {
		port = plugin.DefaultPort
	}

	timeout := durationParam(cfg.Blob, "timeout", 5*time.Second)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &TCP{
		kind:    kind,
		address: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		timeout: timeout,
	}, nil
}

func (t *TCP) Measure(ctx context.Context) (status.Result, error) {
	dialer := net.Dialer{Timeout: t.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", t.address)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return newResult(t.kind, outcome(t.kind, false), fmt.Sprintf("connect to %s failed: %v", t.address, err)), nil
	}
	_ = conn.Close()

	return newResult(t.kind, outcome(t.kind, true), fmt.Sprintf("connected to %s", t.address)), nil
}
