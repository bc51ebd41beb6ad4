// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	anyerr "github.com/anychat-dev/anychat/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := anyerr.New(
		anyerr.CodeCaptureRoleInvalid,
		"unknown capture role",
		anyerr.FieldProviderID("chatgpt"),
		anyerr.Field("role", "narrator"),
	)

	require.Error(t, err)
	assert.Equal(t, anyerr.CodeCaptureRoleInvalid, anyerr.CodeOf(err))
	assert.True(t, anyerr.HasCode(err, anyerr.CodeCaptureRoleInvalid))

	fields := anyerr.FieldsOf(err)
	assert.Equal(t, "chatgpt", fields["provider_id"])
	assert.Equal(t, "narrator", fields["role"])
}

func TestNewWithNoFields(t *testing.T) {
	err := anyerr.New(anyerr.CodeStoreQueryFailure, "connection lost")
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeStoreQueryFailure, anyerr.CodeOf(err))
	assert.Contains(t, err.Error(), "connection lost")
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := anyerr.Errorf(anyerr.CodeDockCreateFailure, "creating window %s for %s", "svc_gemini", "gemini")
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeDockCreateFailure, anyerr.CodeOf(err))
	assert.Contains(t, err.Error(), "creating window svc_gemini for gemini")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := anyerr.Errorf(anyerr.CodeBackupWriteFailure, "writing snapshot: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, anyerr.CodeBackupWriteFailure, anyerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := anyerr.Wrap(
		root,
		anyerr.CodeStoreSessionNotFound,
		"loading session",
		anyerr.FieldSessionID("sess-42"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, anyerr.CodeStoreSessionNotFound, anyerr.CodeOf(err))
	assert.True(t, anyerr.IsNotFound(err))
	assert.Equal(t, "sess-42", anyerr.FieldsOf(err)["session_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, anyerr.Wrap(nil, anyerr.CodeServerInternalFailure, "ignored"))
}

func TestWrapfNilReturnsNil(t *testing.T) {
	assert.NoError(t, anyerr.Wrapf(nil, anyerr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestWrapfFormatsAndPreservesChain(t *testing.T) {
	root := stderrors.New("file vanished")
	err := anyerr.Wrapf(root, anyerr.CodeImportReadFailure, "reading export %s", "conversations.json")

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, anyerr.CodeImportReadFailure, anyerr.CodeOf(err))
	assert.Contains(t, err.Error(), "reading export conversations.json")
}

// ---------------------------------------------------------------------------
// With
// ---------------------------------------------------------------------------

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := anyerr.New(anyerr.CodeDockWindowNotFound, "no tracked window")
	withCtx := anyerr.With(base, anyerr.FieldWindowLabel("svc_chatgpt"))

	require.Error(t, withCtx)
	assert.Equal(t, anyerr.CodeDockWindowNotFound, anyerr.CodeOf(withCtx))
	assert.Equal(t, "svc_chatgpt", anyerr.FieldsOf(withCtx)["window_label"])
}

func TestWithNilReturnsNil(t *testing.T) {
	assert.NoError(t, anyerr.With(nil, anyerr.Field("x", 1)))
}

func TestWithOnPlainErrorFallsBackToInternal(t *testing.T) {
	err := anyerr.With(stderrors.New("plain"), anyerr.Field("k", "v"))
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeServerInternalFailure, anyerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Classifiers
// ---------------------------------------------------------------------------

func TestIsNotFound(t *testing.T) {
	assert.True(t, anyerr.IsNotFound(anyerr.New(anyerr.CodeStoreProviderNotFound, "x")))
	assert.True(t, anyerr.IsNotFound(anyerr.New(anyerr.CodeServerEntityNotFound, "x")))
	assert.False(t, anyerr.IsNotFound(anyerr.New(anyerr.CodeStoreQueryFailure, "x")))
	assert.False(t, anyerr.IsNotFound(nil))
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, anyerr.IsInvalidInput(anyerr.New(anyerr.CodeCaptureRoleInvalid, "x")))
	assert.True(t, anyerr.IsInvalidInput(anyerr.New(anyerr.CodeImportParseInvalid, "x")))
	assert.True(t, anyerr.IsInvalidInput(anyerr.New(anyerr.CodeConfigValidateInvalidValue, "x")))
	assert.False(t, anyerr.IsInvalidInput(anyerr.New(anyerr.CodeBackupWriteFailure, "x")))
}

func TestIsPartialFailure(t *testing.T) {
	assert.True(t, anyerr.IsPartialFailure(anyerr.New(anyerr.CodeCaptureBatchPartial, "x")))
	assert.False(t, anyerr.IsPartialFailure(anyerr.New(anyerr.CodeCaptureSessionFailure, "x")))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, anyerr.Code(""), anyerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, anyerr.Code(""), anyerr.CodeOf(nil))
}

// ---------------------------------------------------------------------------
// HTTPStatus
// ---------------------------------------------------------------------------

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", anyerr.New(anyerr.CodeStoreSessionNotFound, "x"), http.StatusNotFound},
		{"invalid input", anyerr.New(anyerr.CodeServerRequestInvalid, "x"), http.StatusBadRequest},
		{"invalid format", anyerr.New(anyerr.CodeImportParseInvalid, "x"), http.StatusBadRequest},
		{"internal", anyerr.New(anyerr.CodeStoreQueryFailure, "x"), http.StatusInternalServerError},
		{"plain error", stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anyerr.HTTPStatus(tt.err))
		})
	}
}

// ---------------------------------------------------------------------------
// Join
// ---------------------------------------------------------------------------

func TestJoinCombinesErrors(t *testing.T) {
	e1 := stderrors.New("first")
	e2 := stderrors.New("second")
	joined := anyerr.Join(e1, e2)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, e1)
	assert.ErrorIs(t, joined, e2)
	assert.Equal(t, anyerr.CodeServerInternalFailure, anyerr.CodeOf(joined))
}
