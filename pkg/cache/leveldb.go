package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

const keyPrefix = "mnist-"

type LevelDB struct {
	db *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDB, error) {
	if db, err := leveldb.OpenFile(path, nil); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	} else {
		return &LevelDB{db: db}, nil
	}
}

func (c *LevelDB) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := c.db.Get(fmt.Appendf([]byte{}, "%s%s", keyPrefix, key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (c *LevelDB) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Put(fmt.Appendf([]byte{}, "%s%s", keyPrefix, key), value, nil)
}

func (c *LevelDB) Close() error {
	return c.db.Close()
}
