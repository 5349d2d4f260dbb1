// SPDX-License-Identifier: MIT
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/geoanonymizer/spatial"
)

const badgerKeyPrefix = "pt:"

// BadgerStore persists mappings in an embedded badger database, keeping
// masking consistent across runs on the same data directory.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Load(_ context.Context, key string) (spatial.Point, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return spatial.Point{}, false, nil
		}
		return spatial.Point{}, false, err
	}
	p, err := decodePoint(data)
	if err != nil {
		return spatial.Point{}, false, err
	}
	return p, true, nil
}

func (s *BadgerStore) Save(_ context.Context, key string, p spatial.Point) error {
	data, err := encodePoint(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), data)
	})
}

// Maintain runs value-log garbage collection until badger reports nothing
// left to rewrite.
func (s *BadgerStore) Maintain(_ context.Context) error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger gc: %w", err)
		}
	}
}

func (s *BadgerStore) Close() error { return s.db.Close() }

var (
	_ Store      = (*BadgerStore)(nil)
	_ Maintainer = (*BadgerStore)(nil)
)
