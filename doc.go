// Package auth authenticates users and issues/validates bearer tokens for
// downstream services.
//
// Components:
//   - PasswordHasher turns plaintext into a deterministic PBKDF2 digest. The
//     salt is shared by every account and stored digests depend on it.
//   - TokenService issues HS256 tokens valid for one hour and validates
//     presented tokens, failing with ErrTokenExpired or ErrTokenInvalid.
//   - CredentialVerifier looks up an identity by username or email and
//     compares digests. Unknown accounts and wrong passwords look the same.
//   - Gateway combines the above to answer Login and ResolveFromToken.
//
// Audit events:
//   - Gateway publishes UserLoggedIn and UserLoginFailed to an EventNotifier
//     on a detached goroutine bounded by a timeout. Publication errors are
//     logged and counted, never returned, so a broken event pipeline cannot
//     change the outcome of a login.
//
// Errors:
//   - Every failure crossing a component boundary is an *AuthError tagged with
//     a FailureKind. Use errors.Is against the exported sentinels, KindOf to
//     branch, and HTTPStatus/PublicMessage to render a response.
package auth
