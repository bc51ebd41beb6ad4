// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package fingerprint computes the content digests used to deduplicate
// captured chat messages.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of the text as lowercase hex.
//
// The digest covers content only. Role is deliberately excluded: capture
// dedup treats identical text delivered twice (a re-scrape, a duplicate
// event) as the same message, whichever side said it.
func Sum(text string) string {
	digest := sha256.Sum256([]byte(text))
	return hex.EncodeToString(digest[:])
}
