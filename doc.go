// Package tokens implements an access/refresh credential lifecycle on top of
// signed JWTs.
//
// Credential classes:
//   - Access tokens are short lived (15 minutes) and prove identity on every
//     request through the authorization gate middleware.
//   - Refresh tokens are long lived (7 days), single use, and tracked in a
//     per-user ordered collection. Presence in the collection is the only
//     proof of validity, so revocation is just removal.
//
// Rotation:
//   - RefreshRotator exchanges a live refresh token for a fresh pair. The
//     replacement happens in place through a conditional update, which both
//     preserves the credential's position and serializes concurrent
//     rotations of the same token: exactly one wins.
//
// Issuance:
//   - CredentialIssuer mints pairs on login, registration, and provider
//     sign-in (social/), and owns revocation for logout and logout-all.
package tokens
