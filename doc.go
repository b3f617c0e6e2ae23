// Package session implements the authentication session lifecycle for
// client applications: restoring a session at startup, explicit
// login/signup/logout flows, provider-pushed auth events, and the gating
// primitives views need before they can trust an identity.
//
// Session state machine:
//   - SessionState carries {identity, profile, role, status}. The machine is
//     the only writer; consumers receive read-only Snapshot copies and branch
//     on the single AuthStatus field instead of ad hoc nil checks.
//   - Every asynchronous operation carries a generation number. A result that
//     resolves after a newer operation (or provider event) has already settled
//     the machine is discarded, so a cross-tab sign-out can never be clobbered
//     by a slow restore.
//   - Restoration always settles. A failed profile fetch after a confirmed
//     identity degrades to StatusAuthenticated with the default role rather
//     than leaving the machine initializing.
//
// Render gate and access policy:
//   - Gate blocks consumers until the machine has settled once, then stays
//     open for the lifetime of the process.
//   - Authorize is a pure decision function over a Snapshot: allow, redirect
//     to login, or redirect home on role mismatch. RouteGuard adapts those
//     decisions to go-router middleware.
//
// Activity sinks:
//   - ActivitySink receives restore, login, signup, logout, and provider
//     event records. Sinks run best-effort (errors are logged) so audit
//     forwarding never blocks authentication.
package session
