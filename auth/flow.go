package auth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xtvctl/xtv/fault"
	"github.com/xtvctl/xtv/tui"
)

// AuthorizationFlow runs the browser-based authorization code grant with
// PKCE against a loopback redirect. Each call uses a fresh verifier and state.
type AuthorizationFlow struct {
	Tokens *TokenEndpoint

	// ListenAddr overrides the address bound for the redirect. Empty means
	// the host and port of the configured redirect URI.
	ListenAddr string
	// Timeout bounds the wait for the redirect. Zero waits until the
	// context is cancelled.
	Timeout time.Duration
	// OpenBrowser defaults to the platform URL opener.
	OpenBrowser func(url string) error

	Display tui.Displayer
	Log     *zap.Logger
}

// Authorize blocks until the user completes or rejects the grant, the
// timeout passes, or ctx is cancelled. A port that cannot be bound or a
// browser that cannot be launched ends it at once. The listener is stopped
// on every path.
func (f *AuthorizationFlow) Authorize(ctx context.Context) (*Credential, error) {
	const op = "authorize"
	log := f.logger()
	d := f.display()

	redirect, err := url.Parse(f.Tokens.client.Redirect)
	if err != nil || redirect.Host == "" {
		return nil, fault.New(fault.Auth, op, "invalid redirect URI %q", f.Tokens.client.Redirect)
	}

	addr := f.ListenAddr
	if addr == "" {
		addr = redirect.Host
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fault.Wrap(fault.Auth, op, fmt.Errorf("listen on %s: %w", addr, err))
	}
	if redirect.Port() == "0" {
		redirect.Host = ln.Addr().String()
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	redirectURI := redirect.String()

	pkce := newPKCEPair()
	state := newState()
	exchange := func(ctx context.Context, code string) (*Credential, error) {
		return f.Tokens.ExchangeCode(ctx, code, pkce.verifier, redirectURI)
	}

	l := serveCallback(ctx, ln, path, state, exchange, log)
	defer l.close()

	authURL := f.Tokens.authCodeURL(state, redirectURI, pkce)
	log.Debug("authorization flow started",
		zap.String("listen", ln.Addr().String()),
		zap.String("redirect_uri", redirectURI),
	)
	d.AuthURLReady(authURL, ln.Addr().String())

	if err := f.browser()(authURL); err != nil {
		return nil, fault.Wrap(fault.Auth, op, fmt.Errorf("open browser: %w", err))
	}

	var deadline time.Time
	if f.Timeout > 0 {
		deadline = time.Now().Add(f.Timeout)
	}
	d.WaitingForCallback(deadline)

	cred, err := l.wait(ctx, f.Timeout)
	if err != nil {
		return nil, err
	}
	d.AuthSuccess()
	return cred, nil
}

func (f *AuthorizationFlow) display() tui.Displayer {
	if f.Display == nil {
		return tui.NoopDisplayer{}
	}
	return f.Display
}

func (f *AuthorizationFlow) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

func (f *AuthorizationFlow) browser() func(string) error {
	if f.OpenBrowser == nil {
		return openBrowser
	}
	return f.OpenBrowser
}
