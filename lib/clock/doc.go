// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The relay reads the time for event timestamps and session durations,
// and waits on a timer while draining a session. Components take a
// [Clock] field instead of calling the time package directly; a nil
// field means [Real]. Tests inject [Fake] and move time with
// [FakeClock.Advance]:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	session := &relay.Session{Clock: c, ...}
//	go session.Run(ctx)
//	c.WaitForTimers(1) // the drain timer is registered
//	c.Advance(time.Second)
package clock
