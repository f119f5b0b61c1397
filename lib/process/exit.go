// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "binary: error: err" to stderr and exits with status 1.
// Use it in main() for the error returned by run().
func Fatal(binary string, err error) {
	fmt.Fprintf(os.Stderr, "%s: error: %v\n", binary, err)
	os.Exit(1)
}
