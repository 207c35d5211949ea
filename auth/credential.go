package auth

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/xtvctl/xtv/transport"
)

// Credential is an access/refresh token pair and the instant the access token
// stops being accepted. It is replaced as a whole, never edited in place.
type Credential struct {
	Access  string    `yaml:"access" json:"access"`
	Refresh string    `yaml:"refresh" json:"refresh"`
	Expiry  time.Time `yaml:"expiry" json:"expiry"`
}

// IsExpired reports whether now is past the expiry.
func (c Credential) IsExpired(now time.Time) bool {
	return now.After(c.Expiry)
}

// Complete reports whether every field is set. A stored credential missing
// any of them is treated as absent.
func (c *Credential) Complete() bool {
	return c != nil && c.Access != "" && c.Refresh != "" && !c.Expiry.IsZero()
}

// Preview returns at most the first n characters of the access token.
func (c Credential) Preview(n int) string {
	if len(c.Access) > n {
		return c.Access[:n]
	}
	return c.Access
}

// ClientConfig identifies this client to the provider. It does not change
// for the life of the process.
type ClientConfig struct {
	AuthHost     string
	Redirect     string
	ClientID     string
	ClientSecret string
}

func (c ClientConfig) endpoint() oauth2.Endpoint {
	base := transport.BaseURL(c.AuthHost)
	return oauth2.Endpoint{
		AuthURL:   base + "/oauth/authorize",
		TokenURL:  base + "/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}
