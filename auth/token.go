package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/xtvctl/xtv/fault"
	"github.com/xtvctl/xtv/transport"
)

// tokenRequestTimeout bounds one token endpoint call, retries included.
const tokenRequestTimeout = 10 * time.Second

// ErrorResponse is the error body an OAuth token endpoint returns.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenEndpoint talks to the provider's authorize and token URLs.
type TokenEndpoint struct {
	client ClientConfig
	http   transport.Clients
	now    func() time.Time
}

// NewTokenEndpoint returns an endpoint for client. Every token request is a
// single attempt on clients.Once: an authorization code is single-use, and a
// failed refresh falls back to authorization instead of resending.
func NewTokenEndpoint(client ClientConfig, clients transport.Clients) *TokenEndpoint {
	return &TokenEndpoint{client: client, http: clients, now: time.Now}
}

func (t *TokenEndpoint) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     t.client.ClientID,
		ClientSecret: t.client.ClientSecret,
		Endpoint:     t.client.endpoint(),
		RedirectURL:  redirectURI,
	}
}

// authCodeURL builds the URL the user opens to grant access.
func (t *TokenEndpoint) authCodeURL(state, redirectURI string, pkce pkcePair) string {
	return t.oauthConfig(redirectURI).AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades an authorization code and its PKCE verifier for a
// credential. The provider must return a refresh token.
func (t *TokenEndpoint) ExchangeCode(
	ctx context.Context,
	code, verifier, redirectURI string,
) (*Credential, error) {
	const op = "exchange authorization code"

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("code_verifier", verifier)
	data.Set("redirect_uri", redirectURI)

	tok, err := t.post(ctx, op, data)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		return nil, fault.New(fault.Auth, op, "provider returned no refresh token")
	}

	return t.credential(tok, tok.RefreshToken), nil
}

// Refresh exchanges refreshToken for a new credential. When the provider does
// not rotate the refresh token, the old one is kept. Any failure is an Auth
// fault.
func (t *TokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	const op = "refresh access token"

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	tok, err := t.post(ctx, op, data)
	if err != nil {
		// Every refresh failure is an Auth fault; the cause stays in the chain.
		if fault.KindOf(err) != fault.Auth {
			err = fault.Wrap(fault.Auth, "", err)
		}
		return nil, err
	}

	next := tok.RefreshToken
	if next == "" {
		next = refreshToken
	}
	return t.credential(tok, next), nil
}

func (t *TokenEndpoint) credential(tok *tokenResponse, refresh string) *Credential {
	return &Credential{
		Access:  tok.AccessToken,
		Refresh: refresh,
		Expiry:  t.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
}

func (t *TokenEndpoint) post(
	ctx context.Context,
	op string,
	data url.Values,
) (*tokenResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, tokenRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		t.client.endpoint().TokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fault.Wrap(fault.Protocol, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(t.client.ClientID), url.QueryEscape(t.client.ClientSecret))

	// A retryable status comes back as a response alongside the error; its
	// status decides the outcome.
	resp, err := t.http.Once.DoWithContext(reqCtx, req)
	if resp == nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		rerr := &oauth2.RetrieveError{Response: resp, Body: body}
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			rerr.ErrorCode = errResp.Error
			rerr.ErrorDescription = errResp.ErrorDescription
		}
		return nil, fault.Wrap(fault.Auth, op, rerr)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fault.Wrap(fault.Protocol, op, fmt.Errorf("failed to parse token response: %w", err))
	}

	if err := validateTokenResponse(tok.AccessToken, tok.TokenType, tok.ExpiresIn); err != nil {
		return nil, fault.Wrap(fault.Protocol, op, fmt.Errorf("invalid token response: %w", err))
	}

	return &tok, nil
}

// validateTokenResponse validates the OAuth token response
func validateTokenResponse(accessToken, tokenType string, expiresIn int) error {
	if accessToken == "" {
		return errors.New("access_token is empty")
	}

	if expiresIn <= 0 {
		return fmt.Errorf("expires_in must be positive, got: %d", expiresIn)
	}

	// Token type is optional in OAuth 2.0, but if present, should be "Bearer"
	if tokenType != "" && !strings.EqualFold(tokenType, "Bearer") {
		return fmt.Errorf("unexpected token_type: %s (expected Bearer)", tokenType)
	}

	return nil
}
