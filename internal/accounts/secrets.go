package accounts

import (
	"github.com/99designs/keyring"
	"github.com/pkg/errors"
)

const keyringService = "mailroom"

// Secrets keeps endpoint passwords outside the account document.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// KeyringSecrets stores passwords in the operating system keyring.
type KeyringSecrets struct {
	ring keyring.Keyring
}

func NewKeyringSecrets(ring keyring.Keyring) *KeyringSecrets {
	return &KeyringSecrets{ring: ring}
}

// OpenKeyring opens the platform keyring, falling back to an encrypted file
// backend under fileDir.
func OpenKeyring(fileDir string) (*KeyringSecrets, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(keyringService + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening keyring")
	}
	return NewKeyringSecrets(ring), nil
}

// Get returns an empty string when no secret is stored under key.
func (s *KeyringSecrets) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "getting secret %q", key)
	}
	return string(item.Data), nil
}

func (s *KeyringSecrets) Set(key, value string) error {
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return errors.Wrapf(err, "setting secret %q", key)
	}
	return nil
}

func (s *KeyringSecrets) Remove(key string) error {
	err := s.ring.Remove(key)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return errors.Wrapf(err, "removing secret %q", key)
}

func inboundKey(id string) string  { return id + "/imap" }
func outboundKey(id string) string { return id + "/smtp" }
