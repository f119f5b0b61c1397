// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is an ordinary connection
// termination rather than a transport fault: EOF, use of a connection
// this process already closed, broken pipe, or connection reset.
//
// When one side of a relayed session disconnects, the relay closes
// both connections, and the pump still blocked on the other connection
// observes one of these. They mark a clean close, not an error.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// CloseWrite half-closes conn if it supports it (TCP and Unix
// connections do), signalling end-of-stream to the peer while leaving
// the read side open. It reports whether a half-close was performed.
func CloseWrite(conn net.Conn) bool {
	halfCloser, ok := conn.(interface{ CloseWrite() error })
	if !ok {
		return false
	}
	return halfCloser.CloseWrite() == nil
}
