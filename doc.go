// Package auth implements a small credential service: accounts are
// registered with a bcrypt hashed password, exchanged for an HS256 session
// token on login, and that token gates role protected routes.
//
// Registry:
//   - Users is the only shared mutable state. The in-memory implementation
//     guards a single email index with one RWMutex so the duplicate check and
//     the insert are atomic, and it only ever hands out copies.
//
// Tokens:
//   - TokenServiceImpl derives its signing key from a secret and a salt with
//     HKDF. Tokens carry the user's email as subject plus the role and the
//     registered timestamps, nothing else. Validation checks the signature
//     before the expiry, so a forged token is never reported as expired.
//
// HTTP:
//   - RouteAuthenticator builds the jwtware middleware and role guards for
//     fiber. Every token failure is answered with the same 401 body; the
//     reason is only logged and sent to the ActivitySink. A valid token with
//     the wrong role gets a 403.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to describe
//     registration, login, token rejection and access denied events. Sinks
//     run best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package auth
