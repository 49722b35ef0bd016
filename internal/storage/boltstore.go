package storage

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
)

var bucketHeightByHash = []byte("height_by_hash")

// Index is a bbolt-backed secondary index mapping block header hash to
// chain height. It is not the system of record — the flat chain file
// is — but lets a caller answer "have I seen this hash" or "what height
// is this block" without re-decoding the whole chain file.
type Index struct {
	db     *bolt.DB
	logger *zap.Logger
}

// NewBoltStore opens (creating if absent) a bbolt database at path and
// ensures its one bucket exists.
func NewBoltStore(path string, logger *zap.Logger) (*Index, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bbolt %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHeightByHash)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &Index{db: db, logger: logger}, nil
}

// Close releases the underlying database file.
func (idx *Index) Close() error {
	if idx == nil || idx.db == nil {
		return nil
	}
	return idx.db.Close()
}

// Add records hash at height. It refuses to overwrite an existing
// entry for the same hash, mirroring the teacher's duplicate-add
// rejection for shares of the same identity.
func (idx *Index) Add(hash [32]byte, height uint64) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHeightByHash)
		if b.Get(hash[:]) != nil {
			return fmt.Errorf("storage: hash %x already indexed", hash)
		}
		return b.Put(hash[:], encodeHeight(height))
	})
}

// Get returns the height indexed for hash, if any.
func (idx *Index) Get(hash [32]byte) (uint64, bool) {
	var height uint64
	var ok bool
	_ = idx.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeightByHash).Get(hash[:])
		if v == nil {
			return nil
		}
		height = decodeHeight(v)
		ok = true
		return nil
	})
	return height, ok
}

// Count returns the number of indexed hashes.
func (idx *Index) Count() int {
	n := 0
	_ = idx.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketHeightByHash).Stats().KeyN
		return nil
	})
	return n
}

// Rebuild clears and repopulates the index from a blockchain snapshot,
// used at node startup once the flat chain file has been loaded
// (spec.md §6.5: "secondary index rebuilt from the flat chain file at
// startup").
func (idx *Index) Rebuild(chain *core.Blockchain) error {
	blocks := chain.Snapshot()

	err := idx.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketHeightByHash); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketHeightByHash)
		if err != nil {
			return err
		}
		for height, block := range blocks {
			hash := block.Header.Hash()
			if err := b.Put(hash[:], encodeHeight(uint64(height))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: rebuild index: %w", err)
	}

	if idx.logger != nil {
		idx.logger.Info("rebuilt chain index", zap.Int("blocks", len(blocks)))
	}
	return nil
}

func encodeHeight(h uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, h)
	return b
}

func decodeHeight(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}
