// Package auth implements the authentication token lifecycle: issuing typed,
// signed, time-boxed tokens; revoking them at three independent granularities;
// and deciding, for any presented token, whether it still authorizes access.
//
// The package is organized around five collaborators:
//
//   - User: the authentication-relevant account entity and its invariants.
//   - TokenCodec: issues and verifies signed, typed JWTs with per-type
//     secrets and TTLs.
//   - RevocationStore: a cache-backed registry of revoked tokens, keyed by
//     jti, by (user, type) cutoff, or by (user, all) cutoff.
//   - AuthValidator: composes user state, token claims, and revocation
//     signals into a single trust decision.
//   - UnitOfWork: a transaction-scoped execution boundary for command flows
//     that mutate users and trigger revocation as one logical step.
//
// Transport concerns (HTTP, cookies, GraphQL) live outside this package; an
// external request filter hands AuthValidator the raw token string and maps
// the returned rich errors to status codes.
package auth
