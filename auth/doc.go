// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys, member tokens and ID generation.

# Admin Keys

Admin keys use HMAC-SHA256 over a scope to create deterministic, verifiable
keys:

	siteKey := auth.GenerateAdminKey(auth.SiteScope, salt)
	err := auth.ValidateAdminKey(auth.ElectionScope(electionID), key, salt)

The site key manages elections, members and districts. Each election gets its
own key, returned when the election is created. Nothing is stored: the same
scope and salt always produce the same key.

# Member Tokens

Members authenticate with HS256 JWTs carrying a member_id claim:

	token, err := auth.GenerateMemberToken(memberID, secret, 30*24*time.Hour)
	memberID, err := auth.MemberIDFromToken(token, secret)

Only HS256 is accepted. Expired or tampered tokens yield ErrInvalidToken.

# IDs

GenerateID returns random hex strings, used for ballot IDs:

	id, err := auth.GenerateID(16) // 32 hex chars
*/
package auth
