package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtvctl/xtv/auth"
	"github.com/xtvctl/xtv/fault"
)

func validConfig() *Config {
	cfg := Default()
	cfg.APIHost = "api.example.com"
	cfg.OAuth.AuthHost = "auth.example.com"
	cfg.OAuth.Creds = Creds{ClientID: "cid", ClientSecret: "secret"}
	return cfg
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := validConfig()
	cfg.Token = &auth.Credential{
		Access:  "A1",
		Refresh: "R1",
		Expiry:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg.Settings.AuthTimeout = 2 * time.Minute

	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, got.Token)
	assert.True(t, cfg.Token.Expiry.Equal(got.Token.Expiry))
	assert.Equal(t, "A1", got.Token.Access)
	assert.Equal(t, 2*time.Minute, got.Settings.AuthTimeout)
	assert.Equal(t, cfg.OAuth, got.OAuth)
	assert.Equal(t, cfg.APIHost, got.APIHost)
}

func TestLoad_DocumentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `api_host: api.example.com
oauth:
  auth_host: auth.example.com
  redirect: http://127.0.0.1:9000/auth
  creds:
    client_id: cid
    client_secret: shh
token:
  access: A1
  refresh: R1
  expiry: 2026-05-01T10:00:00Z
settings:
  auth_timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/auth", cfg.OAuth.Redirect)
	assert.Equal(t, "shh", cfg.OAuth.Creds.ClientSecret)
	assert.Equal(t, 90*time.Second, cfg.Settings.AuthTimeout)
	assert.Equal(t, DefaultDevice, cfg.Settings.Device, "absent settings keep defaults")
	require.NotNil(t, cfg.Token)
	assert.Equal(t, "R1", cfg.Token.Refresh)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PartialTokenDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token:\n  access: A1\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Token)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oauth: [1, 2"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, fault.ErrPersistence)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"scheme host", func(c *Config) { c.APIHost = "http://127.0.0.1:9999" }, ""},
		{"localhost redirect", func(c *Config) { c.OAuth.Redirect = "http://localhost:8080/auth" }, ""},
		{"no api host", func(c *Config) { c.APIHost = "" }, "api_host"},
		{"bad auth scheme", func(c *Config) { c.OAuth.AuthHost = "ftp://auth" }, "oauth.auth_host"},
		{"https redirect", func(c *Config) { c.OAuth.Redirect = "https://127.0.0.1:8080/auth" }, "oauth.redirect"},
		{"remote redirect", func(c *Config) { c.OAuth.Redirect = "http://example.com:8080/auth" }, "loopback"},
		{"portless redirect", func(c *Config) { c.OAuth.Redirect = "http://127.0.0.1/auth" }, "port"},
		{"no client id", func(c *Config) { c.OAuth.Creds.ClientID = "" }, "client_id"},
		{"bad storage", func(c *Config) { c.Settings.TokenStorage = "vault" }, "token_storage"},
		{"negative timeout", func(c *Config) { c.Settings.AuthTimeout = -time.Second }, "auth_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, fault.ErrPersistence)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnv_Apply(t *testing.T) {
	t.Setenv("XTV_API_HOST", "env.example.com")
	t.Setenv("XTV_DEVICE", "Bedroom")
	t.Setenv("XTV_AUTH_TIMEOUT", "45s")
	t.Setenv("XTV_VERBOSE", "true")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.True(t, e.Verbose)

	cfg := validConfig()
	cfg.OAuth.Creds.ClientSecret = "from-file"
	e.Apply(cfg)

	assert.Equal(t, "env.example.com", cfg.APIHost)
	assert.Equal(t, "Bedroom", cfg.Settings.Device)
	assert.Equal(t, 45*time.Second, cfg.Settings.AuthTimeout)
	assert.Equal(t, "from-file", cfg.OAuth.Creds.ClientSecret, "unset variables leave file values")
}

func TestPick(t *testing.T) {
	assert.Equal(t, "flag", Pick("flag", "env", "file", "default"))
	assert.Equal(t, "file", Pick("", "", "file", "default"))
	assert.Equal(t, "default", Pick("", "", "", "default"))
	assert.Equal(t, "", Pick())
}

func TestPaths(t *testing.T) {
	p := Paths{Dir: "/cfg"}
	assert.Equal(t, filepath.Join("/cfg", "config.yaml"), p.Config())
	assert.Equal(t, filepath.Join("/cfg", "channels.yaml"), p.Channels())
	assert.Equal(t, filepath.Join("/cfg", "devices.yaml"), p.Devices())
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Contains(t, dir, "xtv")
}

func TestTokenStore(t *testing.T) {
	cfg := validConfig()
	s := NewTokenStore(cfg)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	cred := &auth.Credential{Access: "A1", Refresh: "R1", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, s.Save(cred))
	cred.Access = "mutated"
	assert.Equal(t, "A1", cfg.Token.Access, "store keeps its own copy")

	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "A1", got.Access)

	require.NoError(t, s.Clear())
	assert.Nil(t, cfg.Token)
}
