package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

const (
	testClientID     = "client-id"
	testClientSecret = "client-secret"
	testCode         = "C1"
)

// fakeProvider is an authorization server that checks the PKCE verifier
// against the challenge the browser saw.
type fakeProvider struct {
	srv *httptest.Server

	mu        sync.Mutex
	challenge string
	lastQuery url.Values

	codeCalls    atomic.Int32
	refreshCalls atomic.Int32

	refreshFails bool
	omitRefresh  bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", p.token)
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) clientConfig() ClientConfig {
	return ClientConfig{
		AuthHost:     p.srv.URL,
		Redirect:     "http://127.0.0.1:0/auth",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
	}
}

func (p *fakeProvider) tokens(t *testing.T) *TokenEndpoint {
	t.Helper()
	return NewTokenEndpoint(p.clientConfig(), testClients(t))
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
		return
	}
	id, secret, ok := r.BasicAuth()
	if !ok || id != testClientID || secret != testClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		p.codeCalls.Add(1)
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		p.mu.Lock()
		want := p.challenge
		p.mu.Unlock()
		if r.PostForm.Get("code") != testCode || base64.RawURLEncoding.EncodeToString(sum[:]) != want {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":             "invalid_grant",
				"error_description": "code verifier does not match",
			})
			return
		}
		body := map[string]any{
			"access_token":  "A1",
			"refresh_token": "R1",
			"expires_in":    3600,
			"token_type":    "bearer",
		}
		if p.omitRefresh {
			delete(body, "refresh_token")
		}
		writeJSON(w, http.StatusOK, body)

	case "refresh_token":
		p.refreshCalls.Add(1)
		if p.refreshFails || r.PostForm.Get("refresh_token") != "R1" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "A2",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
	}
}

// browser plays the user: it records the challenge and follows the redirect.
// tamper may rewrite the redirect query before it is sent.
func (p *fakeProvider) browser(tamper func(q url.Values)) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		p.mu.Lock()
		p.challenge = q.Get("code_challenge")
		p.lastQuery = q
		p.mu.Unlock()

		cb := url.Values{"code": {testCode}, "state": {q.Get("state")}}
		if tamper != nil {
			tamper(cb)
		}
		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?" + cb.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func (p *fakeProvider) authQuery() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastQuery
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
