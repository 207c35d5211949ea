// Package transport builds the HTTP clients shared by the token endpoint and
// the API client.
package transport

import (
	"net/http"
	"strings"

	retry "github.com/appleboy/go-httpretry"
	"go.uber.org/zap"
)

// Clients pairs a retrying client with a single-attempt one over the same
// base http.Client. Requests whose failure must surface as-is, or that are
// unsafe to resend, go through Once.
type Clients struct {
	Retrying *retry.Client
	Once     *retry.Client
}

// New builds both clients on base, which may be nil for the default client.
// Their request logs go to log.
func New(base *http.Client, log *zap.Logger) (Clients, error) {
	if log == nil {
		log = zap.NewNop()
	}
	logger := retry.WithLogger(zapLogger{log.Named("http").Sugar()})

	retrying, err := retry.NewBackgroundClient(retry.WithHTTPClient(base), logger)
	if err != nil {
		return Clients{}, err
	}
	once, err := retry.NewClient(retry.WithHTTPClient(base), retry.WithMaxRetries(0), logger)
	if err != nil {
		return Clients{}, err
	}
	return Clients{Retrying: retrying, Once: once}, nil
}

// BaseURL turns a bare host into an https base URL. Hosts that already carry
// a scheme are used as given.
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// zapLogger feeds go-httpretry's key/value records into zap, one level
// quieter than reported so per-attempt chatter only shows with --verbose.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l zapLogger) Info(msg string, args ...any)  { l.s.Debugw(msg, args...) }
func (l zapLogger) Warn(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l zapLogger) Error(msg string, args ...any) { l.s.Warnw(msg, args...) }
