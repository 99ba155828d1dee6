package cache

import "time"

// Cache is the backend-agnostic cache used for unscoped feed result
// restore and hot content lookups.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
}
