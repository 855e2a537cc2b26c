// Package secret keeps database passwords out of the config file.
package secret

import (
	"fmt"

	"reports/internal/domain"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords. The initial implementation uses macOS Keychain,
// but can be swapped for Vault, env vars, etc.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// ConnectionKey is the secret key holding a named connection's password.
func ConnectionKey(name string) string {
	return "connection:" + name
}

// FillPassword returns conn with its password loaded from s when the
// config leaves it empty. A missing secret leaves the password empty.
func FillPassword(s SecretStore, conn domain.Connection) (domain.Connection, error) {
	if s == nil || conn.Password != "" || conn.Name == "" {
		return conn, nil
	}
	pw, err := s.Get(ConnectionKey(conn.Name))
	if err != nil {
		return conn, fmt.Errorf("load password for %s: %w", conn.Name, err)
	}
	conn.Password = string(pw)
	return conn, nil
}
