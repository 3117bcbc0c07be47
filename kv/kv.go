package kv

import (
	"io"
	"time"
)

type KVS[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Range(func(key K, value V) bool)

	io.Closer
}

// TTLSetter is implemented by stores that can give one entry its own
// deadline instead of the store default.
type TTLSetter[K comparable, V any] interface {
	SetWithTTL(key K, value V, ttl time.Duration)
}
