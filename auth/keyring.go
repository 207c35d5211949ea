package auth

import (
	"encoding/json"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/xtvctl/xtv/fault"
)

const keyringService = "xtv"

// CredentialStore persists the credential between runs. Load returns nil
// when nothing is stored.
type CredentialStore interface {
	Load() (*Credential, error)
	Save(cred *Credential) error
	Clear() error
}

// KeyringStore keeps the credential in the OS keychain, keyed by client id.
type KeyringStore struct {
	user string
}

// NewKeyringStore returns a store for the given client id.
func NewKeyringStore(clientID string) *KeyringStore {
	return &KeyringStore{user: clientID}
}

func (k *KeyringStore) Load() (*Credential, error) {
	const op = "load credential from keyring"

	secret, err := keyring.Get(keyringService, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, op, err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(secret), &cred); err != nil {
		return nil, fault.Wrap(fault.Persistence, op, err)
	}
	if !cred.Complete() {
		return nil, nil
	}
	return &cred, nil
}

func (k *KeyringStore) Save(cred *Credential) error {
	const op = "save credential to keyring"

	data, err := json.Marshal(cred)
	if err != nil {
		return fault.Wrap(fault.Persistence, op, err)
	}
	return fault.Wrap(fault.Persistence, op, keyring.Set(keyringService, k.user, string(data)))
}

func (k *KeyringStore) Clear() error {
	err := keyring.Delete(keyringService, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return fault.Wrap(fault.Persistence, "clear keyring credential", err)
}
