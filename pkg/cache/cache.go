package cache

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("cache: not found")

// Cache stores downloaded dataset archives by file name.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open selects a backend from location: a mongodb:// URL connects to MongoDB,
// anything else is a leveldb directory. An empty location or "off" returns a
// nil Cache.
func Open(ctx context.Context, location string) (Cache, error) {
	switch {
	case location == "" || location == "off":
		return nil, nil
	case strings.HasPrefix(location, "mongodb://"), strings.HasPrefix(location, "mongodb+srv://"):
		if c, err := OpenMongo(ctx, location); err != nil {
			return nil, err
		} else {
			return c, nil
		}
	default:
		if c, err := OpenLevelDB(location); err != nil {
			return nil, err
		} else {
			return c, nil
		}
	}
}
