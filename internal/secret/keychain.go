package secret

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const keychainService = "reports"

// errItemNotFound is the exit status of `security` for a missing item.
const errItemNotFound = 44

// KeychainStore keeps secrets in the macOS login keychain through the
// `security` tool.
type KeychainStore struct {
	service string
}

// NewKeychainStore returns a keychain store, or nil when the platform has
// no keychain.
func NewKeychainStore() *KeychainStore {
	if runtime.GOOS != "darwin" {
		return nil
	}
	return &KeychainStore{service: keychainService}
}

// Set stores value under key, replacing an existing item.
func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := k.security("add-generic-password", "-a", key, "-s", k.service, "-w", string(value), "-U")
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns the secret under key, or nil when there is none.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.security("find-generic-password", "-a", key, "-s", k.service, "-w")
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return bytes.TrimSpace(out), nil
}

// Delete removes the secret under key. Deleting a missing key is not an
// error.
func (k *KeychainStore) Delete(key string) error {
	_, err := k.security("delete-generic-password", "-a", key, "-s", k.service)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound {
		return nil
	}
	return err
}

func (k *KeychainStore) security(args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.Command("security", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}
	return out, nil
}
