// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package fingerprint_test

import (
	"testing"

	"github.com/anychat-dev/anychat/internal/fingerprint"
	"github.com/stretchr/testify/assert"
)

func TestSumDeterministic(t *testing.T) {
	a := fingerprint.Sum("hello world")
	b := fingerprint.Sum("hello world")
	assert.Equal(t, a, b)
}

func TestSumKnownVector(t *testing.T) {
	// Pins the digest across process restarts: stored fingerprints must
	// keep matching future captures of the same content.
	assert.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		fingerprint.Sum("hello world"),
	)
}

func TestSumDistinguishesContent(t *testing.T) {
	assert.NotEqual(t, fingerprint.Sum("hi"), fingerprint.Sum("hi "))
	assert.NotEqual(t, fingerprint.Sum(""), fingerprint.Sum("a"))
}

func TestSumLowercaseHexFixedLength(t *testing.T) {
	got := fingerprint.Sum("日本語のテキスト")
	assert.Len(t, got, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", got)
}

func TestSumEmptyInput(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		fingerprint.Sum(""),
	)
}
