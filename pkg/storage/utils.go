package storage

import "github.com/cespare/xxhash/v2"

func hashKey(key string) uint32 {
	return uint32(xxhash.Sum64String(key))
}
