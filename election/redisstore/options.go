package redisstore

import (
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces lease keys when no prefix is configured.
const DefaultKeyPrefix = "leader_election"

// Options configures a redis-backed lease store.
type Options struct {
	// Client is the shared redis handle. The store does not own it:
	// closing the store leaves the client open.
	Client *goredis.Client
	// KeyPrefix namespaces lease keys as "<prefix>:lease:<election>".
	// Empty selects DefaultKeyPrefix; whitespace-only is invalid.
	KeyPrefix string
}

// DefaultOptions returns options with the standard key prefix. The
// caller still has to supply a client.
func DefaultOptions() Options {
	return Options{KeyPrefix: DefaultKeyPrefix}
}

// Validate checks the options. An empty key prefix is valid; New
// substitutes DefaultKeyPrefix for it.
func (o Options) Validate() error {
	if o.Client == nil {
		return errors.New("redisstore: client must not be nil")
	}
	if o.KeyPrefix != "" && strings.TrimSpace(o.KeyPrefix) == "" {
		return errors.New("redisstore: key prefix must not be whitespace")
	}
	return nil
}
