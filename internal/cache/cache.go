package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/ppiankov/mdpolish/internal/model"
)

// Cache stores enhanced page output
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "mdpolish:v1:"

// Key hashes the parts into a cache key. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		h.Write(p)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// FromConfig builds the layered cache described by cfg, or nil when
// caching is disabled.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return ttl
}
