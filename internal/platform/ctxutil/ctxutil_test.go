// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/ctxutil"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/sec"
)

/*
TestRequestID_RoundTrip verifies storage and retrieval of the correlation ID.
*/
func TestRequestID_RoundTrip(t *testing.T) {
	ctx := ctxutil.WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", ctxutil.GetRequestID(ctx))
}

/*
TestRequestID_Missing verifies the empty-string fallback.
*/
func TestRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", ctxutil.GetRequestID(context.Background()))
}

/*
TestLogger_Fallback verifies that a bare context yields the default logger
instead of nil.
*/
func TestLogger_Fallback(t *testing.T) {
	logger := ctxutil.GetLogger(context.Background())
	assert.Equal(t, slog.Default(), logger)
}

/*
TestPrincipal_RoundTrip verifies storage and retrieval of the authenticated
principal, and the nil result for anonymous requests.
*/
func TestPrincipal_RoundTrip(t *testing.T) {
	principal := &sec.Principal{UserID: "u1", Username: "alice", SessionToken: "tok"}

	ctx := ctxutil.WithPrincipal(context.Background(), principal)
	assert.Equal(t, principal, ctxutil.GetPrincipal(ctx))

	assert.Nil(t, ctxutil.GetPrincipal(context.Background()))
}
