package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds the environment overrides. Empty values leave the document alone.
type Env struct {
	ConfigDir    string        `env:"XTV_CONFIG_DIR"`
	APIHost      string        `env:"XTV_API_HOST"`
	AuthHost     string        `env:"XTV_AUTH_HOST"`
	ClientID     string        `env:"XTV_CLIENT_ID"`
	ClientSecret string        `env:"XTV_CLIENT_SECRET"`
	Device       string        `env:"XTV_DEVICE"`
	TokenStorage string        `env:"XTV_TOKEN_STORAGE"`
	CallbackAddr string        `env:"XTV_CALLBACK_ADDR"`
	AuthTimeout  time.Duration `env:"XTV_AUTH_TIMEOUT"`
	Verbose      bool          `env:"XTV_VERBOSE"`
}

// LoadEnv reads .env from the working directory, if present, then parses
// the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Apply overlays the non-empty overrides onto cfg.
func (e Env) Apply(cfg *Config) {
	set(&cfg.APIHost, e.APIHost)
	set(&cfg.OAuth.AuthHost, e.AuthHost)
	set(&cfg.OAuth.Creds.ClientID, e.ClientID)
	set(&cfg.OAuth.Creds.ClientSecret, e.ClientSecret)
	set(&cfg.Settings.Device, e.Device)
	set(&cfg.Settings.TokenStorage, e.TokenStorage)
	set(&cfg.Settings.CallbackAddr, e.CallbackAddr)
	if e.AuthTimeout != 0 {
		cfg.Settings.AuthTimeout = e.AuthTimeout
	}
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Pick returns the first non-empty value. Callers pass flag, env, file and
// default in that order.
func Pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
