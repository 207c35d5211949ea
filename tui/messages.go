package tui

import (
	"time"
)

// MsgTokensNotFound signals that no credential was stored.
type MsgTokensNotFound struct{}

// MsgTokenExpired signals that the cached access token has expired.
type MsgTokenExpired struct{}

// MsgRefreshOK signals that the token was refreshed successfully.
type MsgRefreshOK struct{}

// MsgRefreshFailed signals that token refresh failed and sign-in restarts.
type MsgRefreshFailed struct{ Err error }

// MsgAuthURLReady carries the authorize URL opened in the browser.
type MsgAuthURLReady struct {
	AuthURL      string
	CallbackAddr string
}

// MsgWaitingForCallback signals that the flow is blocked on the redirect.
// A zero Deadline means the wait is unbounded.
type MsgWaitingForCallback struct{ Deadline time.Time }

// MsgAuthSuccess signals that the code was exchanged for tokens.
type MsgAuthSuccess struct{}

// MsgDone signals that a usable credential is in hand.
type MsgDone struct {
	Preview   string
	ExpiresIn time.Duration
}

// MsgFatal signals an error that ends the command.
type MsgFatal struct{ Err error }
