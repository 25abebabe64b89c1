// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

package sec

// Principal represents the authenticated identity attached to a request.
//
// # Why not the full User?
//
// Handlers only need the identity and the session that proved it. Keeping the
// principal small avoids dragging credential fields (hash, salt) through the
// request context.
type Principal struct {
	// UserID is the opaque identifier of the authenticated account.
	UserID string `json:"user_id"`

	// Username is the account's display identifier.
	Username string `json:"username"`

	// SessionToken is the opaque bearer token that resolved to this principal.
	// Logout revokes exactly this token.
	SessionToken string `json:"-"`
}
