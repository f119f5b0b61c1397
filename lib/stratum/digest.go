// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stratum

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest identifies a frame's exact bytes: the first 16 bytes of a
// keyed BLAKE3 hash. Identical frames seen on different sessions or in
// a capture file have identical digests.
type Digest [16]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// frameDomainKey separates frame digests from any other BLAKE3 use of
// the same bytes. ASCII "stratumtap.frame" zero-padded to 32 bytes.
var frameDomainKey = [32]byte{
	's', 't', 'r', 'a', 't', 'u', 'm', 't', 'a', 'p', '.', 'f', 'r', 'a', 'm', 'e',
}

// FrameDigest computes the digest of a frame without its delimiter.
func FrameDigest(frame []byte) Digest {
	hasher, err := blake3.NewKeyed(frameDomainKey[:])
	if err != nil {
		panic("stratum: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(frame)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
