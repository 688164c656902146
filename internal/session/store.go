package session

import (
	"errors"

	"nathanbeddoewebdev/tsm/internal/util"
)

// ServiceName is the keyring service under which the session is stored.
const ServiceName = "tsm"

// Storage keys.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// ErrNotFound is returned by a Store when the key has no value.
var ErrNotFound = errors.New("session value not found")

// Store persists the two halves of a session as opaque strings.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Backend names accepted by the session-store config key.
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// Backends lists the supported session backends.
func Backends() []string {
	return []string{BackendKeyring, BackendFile}
}

// DefaultStore returns the store for the named backend. An empty name
// selects the OS keychain.
func DefaultStore(backend string) (Store, error) {
	switch util.NormalizeKey(backend) {
	case "", BackendKeyring:
		return NewKeyringStore(ServiceName), nil
	case BackendFile:
		return NewFileStore("")
	default:
		return nil, errors.New("session: unknown backend " + backend)
	}
}
