package sink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket is used when NewBolt is given an empty bucket name.
const DefaultBucket = "documents"

// Bolt stores each document in a bbolt bucket under an 8-byte big-endian
// sequence key, so iteration order matches arrival order.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	format Formatter
}

// NewBolt opens (or creates) the database at path and ensures the bucket
// exists.
func NewBolt(path, bucket string, format Formatter) (*Bolt, error) {
	if path == "" {
		return nil, errors.New("sink: bolt path is required")
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("sink: open bolt database: %w", err)
	}
	name := []byte(bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sink: create bucket %q: %w", bucket, err)
	}
	return &Bolt{db: db, bucket: name, format: format}, nil
}

// Write stores doc under the bucket's next sequence number.
func (b *Bolt) Write(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value := b.format.Format(doc)
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return fmt.Errorf("sink: bucket not found: %s", b.bucket)
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bkt.Put(key, value)
	})
}

// Count reports how many documents the bucket holds.
func (b *Bolt) Count() (int, error) {
	count := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return fmt.Errorf("sink: bucket not found: %s", b.bucket)
		}
		count = bkt.Stats().KeyN
		return nil
	})
	return count, err
}

// ForEach visits stored documents in sequence order.
func (b *Bolt) ForEach(fn func(seq uint64, doc []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(b.bucket)
		if bkt == nil {
			return fmt.Errorf("sink: bucket not found: %s", b.bucket)
		}
		return bkt.ForEach(func(k, v []byte) error {
			return fn(binary.BigEndian.Uint64(k), v)
		})
	})
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}
