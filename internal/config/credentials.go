package config

import (
	"strings"

	"github.com/zalando/go-keyring"

	"paysight/pkg/errors"
)

const (
	keyringService = "paysight"
	keyringPrefix  = "keyring:"
)

// IsKeyringRef reports whether value points at the OS keyring
func IsKeyringRef(value string) bool {
	return strings.HasPrefix(value, keyringPrefix)
}

// KeyringRef returns the config value referring to account in the keyring
func KeyringRef(account string) string {
	return keyringPrefix + account
}

// StorePassword saves password in the OS keyring under account and
// returns the reference to put in the config file
func StorePassword(account, password string) (string, error) {
	if err := keyring.Set(keyringService, account, password); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeKeyringFailed, "failed to store password in keyring").
			WithContext("account", account)
	}
	return KeyringRef(account), nil
}

// ResolvePassword turns a configured password into plaintext. It accepts
// plaintext, ENC[...] and keyring:<account> values.
func ResolvePassword(value string) (string, error) {
	switch {
	case IsKeyringRef(value):
		account := strings.TrimPrefix(value, keyringPrefix)
		secret, err := keyring.Get(keyringService, account)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeKeyringFailed, "failed to read password from keyring").
				WithContext("account", account).
				WithSuggestions("Run 'paysight setup' to store the password again")
		}
		return secret, nil
	case IsEncrypted(value):
		return DecryptPassword(value)
	default:
		return value, nil
	}
}
