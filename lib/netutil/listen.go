// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Listen opens a TCP listener on address with SO_REUSEADDR set, so a
// restarted relay can rebind its port while connections from the
// previous process are still in TIME_WAIT.
func Listen(ctx context.Context, address string) (net.Listener, error) {
	config := net.ListenConfig{Control: reuseAddress}
	listener, err := config.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}
	return listener, nil
}

func reuseAddress(_, _ string, raw syscall.RawConn) error {
	var optionError error
	err := raw.Control(func(fd uintptr) {
		optionError = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	if optionError != nil {
		return fmt.Errorf("setting SO_REUSEADDR: %w", optionError)
	}
	return nil
}
