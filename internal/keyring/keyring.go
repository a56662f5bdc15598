// Package keyring stores per-server user keys in the OS keyring, so the
// key does not have to be typed or kept in environment variables.
package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "confbak"

// SaveUserKey stores the user key for a server URL in the OS keyring
func SaveUserKey(server, userKey string) error {
	return keyring.Set(serviceName, server, userKey)
}

// GetUserKey retrieves the user key for a server URL from the OS keyring
func GetUserKey(server string) (string, error) {
	return keyring.Get(serviceName, server)
}

// DeleteUserKey removes the user key for a server URL from the OS keyring
func DeleteUserKey(server string) error {
	return keyring.Delete(serviceName, server)
}

// HasUserKey checks if a user key is stored for a server URL
func HasUserKey(server string) bool {
	_, err := keyring.Get(serviceName, server)
	return err == nil
}
