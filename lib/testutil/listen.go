// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"testing"
)

// Listener is a loopback TCP listener whose accepted connections are
// delivered on Accepted.
type Listener struct {
	net.Listener
	Accepted <-chan *net.TCPConn
}

// ListenTCP opens a listener on 127.0.0.1 with an ephemeral port. The
// listener and every accepted connection are closed when the test
// completes.
func ListenTCP(t *testing.T) *Listener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	accepted := make(chan *net.TCPConn, 16)
	connections := make(chan net.Conn, 64)
	t.Cleanup(func() {
		listener.Close()
		for {
			select {
			case connection := <-connections:
				connection.Close()
			default:
				return
			}
		}
	})

	go func() {
		defer close(accepted)
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			select {
			case connections <- connection:
			default:
			}
			accepted <- connection.(*net.TCPConn)
		}
	}()

	return &Listener{Listener: listener, Accepted: accepted}
}

// DialTCP connects to address and closes the connection when the test
// completes.
func DialTCP(t *testing.T, address string) *net.TCPConn {
	t.Helper()
	connection, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial %s: %v", address, err)
	}
	t.Cleanup(func() { connection.Close() })
	return connection.(*net.TCPConn)
}
