// Package auth implements the authorization decision layer that runs between
// "credentials validated" and "session established": sign-in gating, single-use
// two-factor confirmation consumption, and progressive enrichment of identity
// tokens with authorization claims.
//
// Sign-in gating:
//   - SignInGate decides allow/deny for a sign-in attempt. Federated providers
//     are trusted to have verified identity; first-party credential sign-ins
//     require a verified email and, when two-factor is enabled, a consumable
//     TwoFactorConfirmation. Confirmations are deleted before the gate returns
//     allow so a crash can never leave a reusable confirmation behind an
//     already granted session.
//
// Token enrichment:
//   - RoleEnricher re-reads the authoritative role from the UserDirectory on
//     every token mint and refresh, so role claims self-heal instead of
//     trusting stale cached values. ProjectSession copies subject and role
//     from claims into the per-request SessionObject; partially enriched
//     tokens yield partially populated sessions rather than errors.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the gate, the
//     account-link handler, and the Auther to describe allow/deny decisions,
//     confirmation consumption, and link events. Sinks run best-effort
//     (errors are logged) so auditing never blocks authentication.
package auth
