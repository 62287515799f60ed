// Package auth implements credential based authentication for web
// applications: bcrypt password hashing, JWT issuance and verification,
// a bun backed user store, registration and login flows, and a bearer
// token middleware that gates protected routes.
//
// Components take their collaborators (store, signing secret, logger)
// through constructors so they can be exercised in isolation with fakes.
// Authorization is stateless: identity on protected requests is derived
// from the token's signed claims, never from a per-request store lookup.
package auth
