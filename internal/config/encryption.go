package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"paysight/pkg/errors"
	"paysight/pkg/models"
)

const (
	encryptedPrefix = "ENC["
	encryptedSuffix = "]"

	// EnvEncryptionKey supplies the passphrase for ENC[...] values
	EnvEncryptionKey = "PAYSIGHT_ENCRYPTION_KEY"

	keySalt          = "paysight-config-v1"
	pbkdf2Iterations = 100000
	keySize          = 32
)

// getEncryptionKey derives the AES key from the configured passphrase, or
// from machine-specific data when none is set
func getEncryptionKey() []byte {
	passphrase := os.Getenv(EnvEncryptionKey)
	if passphrase == "" {
		hostname, _ := os.Hostname()
		homeDir, _ := os.UserHomeDir()
		passphrase = fmt.Sprintf("%s-%s-paysight", hostname, homeDir)
	}
	return pbkdf2.Key([]byte(passphrase), []byte(keySalt), pbkdf2Iterations, keySize, sha256.New)
}

// EncryptPassword encrypts a password using AES-256-GCM
func EncryptPassword(password string) (string, error) {
	if password == "" || IsEncrypted(password) || IsKeyringRef(password) {
		return password, nil
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(password), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext) + encryptedSuffix, nil
}

// DecryptPassword decrypts a password encrypted with EncryptPassword.
// Values that are not ENC[...] are returned unchanged.
func DecryptPassword(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return encrypted, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(encrypted, encryptedPrefix), encryptedSuffix)
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to decode encrypted password")
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New(errors.ErrCodeEncryptionFailed, "ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to decrypt password").
			WithSuggestions("Check that " + EnvEncryptionKey + " matches the key used to encrypt")
	}

	return string(plaintext), nil
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(getEncryptionKey())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to create GCM")
	}
	return gcm, nil
}

// IsEncrypted checks if a string is encrypted
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix) && strings.HasSuffix(value, encryptedSuffix)
}

// EncryptConfigPasswords encrypts the warehouse password in place
func EncryptConfigPasswords(config *models.Config) error {
	encrypted, err := EncryptPassword(config.Warehouse.Password)
	if err != nil {
		return fmt.Errorf("failed to encrypt warehouse password: %w", err)
	}
	config.Warehouse.Password = encrypted
	return nil
}
