// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so that a hung goroutine fails the test instead of hanging
// it. They are the only place real wall-clock timeouts are used in the
// test suite.
//
// [ListenTCP] opens a loopback listener whose accepted connections are
// delivered on a channel, for tests that play the role of a pool or a
// miner on real sockets. Relay tests need real TCP connections because
// half-close is part of the behavior under test and net.Pipe does not
// support it.
//
// All helpers call t.Fatalf on failure.
package testutil
