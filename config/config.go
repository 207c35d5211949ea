// Package config loads and saves the xtv configuration document and applies
// environment overrides to it.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xtvctl/xtv/auth"
	"github.com/xtvctl/xtv/fault"
	"github.com/xtvctl/xtv/store"
	"github.com/xtvctl/xtv/transport"
)

const (
	DefaultRedirect     = "http://127.0.0.1:8080/auth"
	DefaultDevice       = "Media Room"
	TokenStorageFile    = "file"
	TokenStorageKeyring = "keyring"
)

// Config is the persisted document.
type Config struct {
	APIHost  string           `yaml:"api_host"`
	OAuth    OAuth            `yaml:"oauth"`
	Token    *auth.Credential `yaml:"token,omitempty"`
	Settings Settings         `yaml:"settings,omitempty"`
}

type OAuth struct {
	AuthHost string `yaml:"auth_host"`
	Redirect string `yaml:"redirect"`
	Creds    Creds  `yaml:"creds"`
}

type Creds struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Settings are local preferences that the API never sees.
type Settings struct {
	Device       string        `yaml:"device,omitempty"`
	TokenStorage string        `yaml:"token_storage,omitempty"`
	CallbackAddr string        `yaml:"callback_addr,omitempty"`
	AuthTimeout  time.Duration `yaml:"auth_timeout,omitempty"`
}

// Default returns a document with every optional field at its default.
func Default() *Config {
	return &Config{
		OAuth: OAuth{Redirect: DefaultRedirect},
		Settings: Settings{
			Device:       DefaultDevice,
			TokenStorage: TokenStorageFile,
		},
	}
}

// Load reads the document at path over the defaults. A missing file yields
// the defaults. A stored token missing any field is dropped.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := store.ReadYAML(path, cfg); err != nil {
		return nil, err
	}
	if !cfg.Token.Complete() {
		cfg.Token = nil
	}
	return cfg, nil
}

// Save writes the document to path.
func Save(path string, cfg *Config) error {
	return store.WriteYAML(path, cfg)
}

// ClientConfig returns the OAuth client identity.
func (c *Config) ClientConfig() auth.ClientConfig {
	return auth.ClientConfig{
		AuthHost:     c.OAuth.AuthHost,
		Redirect:     c.OAuth.Redirect,
		ClientID:     c.OAuth.Creds.ClientID,
		ClientSecret: c.OAuth.Creds.ClientSecret,
	}
}

// Validate reports every problem with the document at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validateHost(c.APIHost); err != nil {
		errs = append(errs, fmt.Errorf("api_host: %w", err))
	}
	if err := validateHost(c.OAuth.AuthHost); err != nil {
		errs = append(errs, fmt.Errorf("oauth.auth_host: %w", err))
	}
	if err := validateRedirect(c.OAuth.Redirect); err != nil {
		errs = append(errs, fmt.Errorf("oauth.redirect: %w", err))
	}
	if c.OAuth.Creds.ClientID == "" {
		errs = append(errs, errors.New("oauth.creds.client_id: must be set"))
	}
	switch c.Settings.TokenStorage {
	case "", TokenStorageFile, TokenStorageKeyring:
	default:
		errs = append(errs, fmt.Errorf("settings.token_storage: unknown backend %q", c.Settings.TokenStorage))
	}
	if c.Settings.AuthTimeout < 0 {
		errs = append(errs, errors.New("settings.auth_timeout: must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fault.Wrap(fault.Persistence, "validate config", errors.Join(errs...))
}

func validateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("must be set")
	}

	u, err := url.Parse(transport.BaseURL(host))
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// validateRedirect requires a plain-http loopback URI with an explicit port,
// since the redirect is served by a local listener.
func validateRedirect(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" {
		return fmt.Errorf("scheme must be http, got: %q", u.Scheme)
	}
	if u.Port() == "" {
		return errors.New("must include a port")
	}
	host := u.Hostname()
	if host != "localhost" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("host must be a loopback address, got: %q", host)
		}
	}
	return nil
}

// Paths locates the files kept in one config directory.
type Paths struct {
	Dir string
}

func (p Paths) Config() string   { return filepath.Join(p.Dir, "config.yaml") }
func (p Paths) Channels() string { return filepath.Join(p.Dir, "channels.yaml") }
func (p Paths) Devices() string  { return filepath.Join(p.Dir, "devices.yaml") }

// DefaultDir is the per-user config directory, falling back to ~/.xtv when
// the platform has none.
func DefaultDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "xtv"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(fault.Persistence, "locate config directory", err)
	}
	return filepath.Join(home, ".xtv"), nil
}
