// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Stratumtap is a transparent Stratum relay. Mining clients connect to
// the listen address; each connection is paired with a fresh
// connection to the configured pool and bytes are forwarded unchanged
// in both directions. Every newline-delimited Stratum message is
// classified and logged, and optionally appended to a CBOR capture
// file that stratumtap-dump can read back.
//
// Configuration comes from a YAML or JSONC file (--config, or the
// STRATUMTAP_CONFIG environment variable), overridden by flags. A
// positional argument overrides the listen address.
package main
