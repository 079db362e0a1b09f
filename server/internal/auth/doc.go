// Package auth provides HTTP authentication middleware for the websocket
// routes.
//
// Middleware(cfg) supports three modes: "none" passes everything through,
// "apikey" compares a request header against a key resolved from the
// environment, and "jwt" verifies an HS256 bearer token (header or ?token=
// query parameter) with golang-jwt.
//
// When mode is "apikey" and the key is empty, all requests are allowed
// (useful for local development with auth disabled).
package auth
