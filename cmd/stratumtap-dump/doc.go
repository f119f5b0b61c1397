// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Stratumtap-dump prints the records of a stratumtap capture file as
// JSON lines, one record per line, with the captured Stratum message
// decoded into a JSON object.
package main
