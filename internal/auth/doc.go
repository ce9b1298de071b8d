// Package auth issues and validates the bearer tokens of the HTTP API.
//
// Tokens are HS256 JWTs carrying a subject and a Role. Roles map to a
// static set of permissions:
//   - viewer: read the catalog, bus store, reports and forecasts
//   - operator: viewer plus posting readings and bus events
//   - admin: operator plus running simulations that persist reports
//
// There is no user store; tokens are minted by the operator with
// `greenhouse token` using the configured secret.
package auth
