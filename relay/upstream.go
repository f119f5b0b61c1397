// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrUpstreamUnreachable matches every error returned by
// Connector.Connect.
var ErrUpstreamUnreachable = errors.New("relay: upstream unreachable")

// UpstreamUnreachableError reports a failed dial to the pool.
type UpstreamUnreachableError struct {
	Address string
	Err     error
}

func (e *UpstreamUnreachableError) Error() string {
	return fmt.Sprintf("relay: upstream %s unreachable: %v", e.Address, e.Err)
}

// Is makes errors.Is(err, ErrUpstreamUnreachable) match.
func (e *UpstreamUnreachableError) Is(target error) bool {
	return target == ErrUpstreamUnreachable
}

func (e *UpstreamUnreachableError) Unwrap() error { return e.Err }

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Connector opens the upstream half of a session.
type Connector struct {
	// Address is the pool's host:port.
	Address string

	// Timeout bounds each dial. Zero means the dial is bounded only by
	// the context passed to Connect.
	Timeout time.Duration

	// Dialer opens the connection. If nil, a zero net.Dialer is used.
	Dialer Dialer
}

// Connect dials the pool over TCP. Any failure is returned as an
// *UpstreamUnreachableError.
func (c *Connector) Connect(ctx context.Context) (net.Conn, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	connection, err := dialer.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return nil, &UpstreamUnreachableError{Address: c.Address, Err: err}
	}
	return connection, nil
}
