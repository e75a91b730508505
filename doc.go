// Package accounts provides a user-account backend: registration with
// email activation, password and federated login, JWT sessions, password
// reset, role-based authorization, and avatar storage.
//
// Registration:
//   - Nothing is written to the database until the activation link is
//     followed. The pending account (name, email, password hash) travels
//     inside a signed activation token, so abandoned sign-ups leave no rows
//     behind and the store only ever holds verified addresses.
//
// Sessions:
//   - Three token kinds with distinct secrets and lifetimes: activation
//     (5m), access (15m), refresh (7d). Refresh tokens live in an HTTP-only
//     cookie scoped to the refresh endpoint; access tokens are bearer
//     tokens validated by the middleware in middleware/jwtware.
//
// Roles:
//   - Accounts are admin, sub-admin, or subscriber. Role checks read the
//     database on each request rather than token claims, so demotions take
//     effect without revocation machinery.
//
// The social and upload subpackages supply Google/Facebook login and
// Cloudinary avatar storage on the same primitives.
package accounts
