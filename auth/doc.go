// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies capability tokens.

# Capabilities

A Capability names a user and lists the roles they hold per meeting:

	c := auth.Capability{
		UserID: "ana",
		Roles:  map[string][]models.Role{meetingID: {models.RoleVoter}},
	}

Admins (Admin: true) pass every role check. The core packages never look at
capabilities; the HTTP layer checks them before calling in.

# Tokens

Capabilities travel as HS256-signed JWTs (github.com/golang-jwt/jwt/v5):

	token, err := auth.IssueToken(secret, c, 12*time.Hour)
	c, err := auth.ParseToken(secret, token)

Tokens must carry an expiry and the quorumvote issuer. Expired tokens fail
with ErrExpiredToken; anything else that does not verify fails with
ErrInvalidToken.

# Request Context

FromBearer reads an "Authorization: Bearer <token>" header value.
WithCapability and FromContext carry the verified capability through a
request.
*/
package auth
