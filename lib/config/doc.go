// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads stratumtap configuration.
//
// Every setting has a default ([Default]), so a configuration file is
// optional. When one is used it is named by the --config flag (via
// [LoadFile]) or the STRATUMTAP_CONFIG environment variable (via
// [Load]); there is no search path and no other environment override.
// Command-line flags are applied on top of the loaded file by the
// binary.
//
// Files are YAML. Files ending in .json or .jsonc are accepted too:
// comments and trailing commas are stripped with tidwall/jsonc first,
// and the resulting JSON is decoded by the YAML decoder. Unknown keys
// are rejected so that a misspelled setting fails loudly.
//
// The capture path supports ${VAR} and ${VAR:-default} expansion.
//
//	listen: 127.0.0.1:34255
//	upstream:
//	  address: solo.ckpool.org:3333
//	  dial_timeout: 10s
//	framing:
//	  max_frame_bytes: 262144
//	capture:
//	  path: ${STATE_DIRECTORY:-/var/lib/stratumtap}/capture.cbor.zst
//	  compression: zstd
package config
