// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// queryCachePrefix namespaces cache entries inside the store.
const queryCachePrefix = "qrycache:"

// Store is the durable bottom tier, backed by BadgerDB. Values are JSON so
// admin tooling can inspect entries without the Go types.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ Tier = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenStore opens the durable store at the given path, creating the
// directory if needed. An in-memory store keeps nothing on disk and exists
// for tests.
func OpenStore(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsClosed returns true if the database is closed.
func (s *Store) IsClosed() bool {
	return s.db.IsClosed()
}

func (s *Store) Name() string { return "store" }

func entryKey(key string) []byte {
	return []byte(queryCachePrefix + key)
}

// withTx executes fn within a transaction. The transaction is discarded
// if fn returns an error; fn commits explicitly for writes.
func (s *Store) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if s.db.IsClosed() {
		return ErrStoreClosed
	}
	tx := s.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Get loads one entry. Returns ErrNotFound on a miss.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	var entry *Entry
	err := s.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(entryKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = unmarshalEntry(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Set stores one entry, replacing any previous value for the key.
func (s *Store) Set(ctx context.Context, entry *Entry) error {
	value, err := marshalEntry(entry)
	if err != nil {
		return err
	}
	return s.withTx(func(tx *badger.Txn) error {
		if err := tx.Set(entryKey(entry.Key), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes one entry. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.withTx(func(tx *badger.Txn) error {
		if err := tx.Delete(entryKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// List returns every entry matching the filter, for admin inspection.
// A nil filter matches everything.
func (s *Store) List(ctx context.Context, filter func(*Entry) bool) ([]*Entry, error) {
	var entries []*Entry
	err := s.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryCachePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = unmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if filter == nil || filter(entry) {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
