// Package auth obtains and keeps a usable credential for the XTV API.
//
// A Manager owns the single in-memory Credential. On each Acquire it returns
// the cached credential while it is unexpired, exchanges the refresh token once
// it has expired, and falls back to the browser-based authorization code flow
// (PKCE, loopback redirect) when there is nothing to refresh or the refresh
// fails for any reason.
package auth
