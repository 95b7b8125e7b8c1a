package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const allocatorFile = ".media54.db"

var (
	bucketCollectionIDs = []byte("collection_ids")
)

// idAllocator hands out collection ids from a bbolt sequence stored in the
// data root. The database is opened per call so that several sessions can
// share one data root; bbolt's file lock serialises them.
type idAllocator struct {
	root    string
	timeout time.Duration
}

func newIDAllocator(root string) *idAllocator {
	return &idAllocator{root: root, timeout: 5 * time.Second}
}

// Next reserves and returns an id whose collection directory does not exist.
// Reserved ids are never handed out twice, even if never initialised.
func (a *idAllocator) Next() (int, error) {
	db, err := bolt.Open(filepath.Join(a.root, allocatorFile), 0o600, &bolt.Options{Timeout: a.timeout})
	if err != nil {
		return 0, fmt.Errorf("failed to open id allocator: %w", err)
	}
	defer db.Close()

	var id int
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCollectionIDs)
		if err != nil {
			return err
		}
		for {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			id = int(seq - 1)

			_, err = os.Stat(filepath.Join(a.root, strconv.Itoa(id)))
			if os.IsNotExist(err) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
