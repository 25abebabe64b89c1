// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/apperr"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/ctxutil"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/respond"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/sec"
)

// SessionResolver defines the interface needed to resolve session tokens in
// middleware.
//
// # Why an interface?
//
// Session tokens are opaque bearer credentials: the token itself carries no
// identity, so every request must be resolved against the server-side session
// map. Defining the contract here decouples the middleware from the auth
// service implementation and allows mock injection during unit testing.
type SessionResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*sec.Principal, error)
}

// Authenticate extracts the session token from the Authorization header and
// resolves it to a principal.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the token via [SessionResolver]. A token that no
//     longer resolves (revoked, expired, account deactivated) is rejected.
//  4. Inject [*sec.Principal] into the request context for downstream use.
func Authenticate(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Session Resolution ─────────────────────────────────────────
			token := parts[1]
			principal, err := resolver.ResolvePrincipal(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired session"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Principal] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
