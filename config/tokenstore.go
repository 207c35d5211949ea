package config

import "github.com/xtvctl/xtv/auth"

// TokenStore keeps the credential in the document's token field. It only
// touches memory; the document reaches disk through Save.
type TokenStore struct {
	cfg *Config
}

func NewTokenStore(cfg *Config) *TokenStore {
	return &TokenStore{cfg: cfg}
}

func (s *TokenStore) Load() (*auth.Credential, error) {
	if !s.cfg.Token.Complete() {
		return nil, nil
	}
	c := *s.cfg.Token
	return &c, nil
}

func (s *TokenStore) Save(cred *auth.Credential) error {
	if cred == nil {
		s.cfg.Token = nil
		return nil
	}
	c := *cred
	s.cfg.Token = &c
	return nil
}

func (s *TokenStore) Clear() error {
	s.cfg.Token = nil
	return nil
}
