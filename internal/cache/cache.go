package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache stores serialized values under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix versions the key space so stale entries from older
// serialization formats never deserialize into current types.
const keyPrefix = "islandhop:v1:"

// Key derives a stable cache key from a namespace and the raw input
// (typically the user query or an LLM prompt).
func Key(namespace, input string) string {
	sum := sha256.Sum256([]byte(input))
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:])
}

// GetJSON looks up key and decodes the stored JSON into v. A corrupt
// entry counts as a miss rather than an error; the caller recomputes.
func GetJSON(c Cache, key string, v any) bool {
	data, found := c.Get(key)
	if !found {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v as JSON and stores it under key with the given TTL
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
