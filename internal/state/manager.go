package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

const (
	runPrefix         = "run:"
	defaultMaxEntries = 1000
)

// Journal is an append-only audit log of runs. It is never consulted to
// decide whether a record needs updating.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

type badgerJournal struct {
	db         *badger.DB
	maxEntries int
}

func New(path string) (Journal, error) {
	return open(path, defaultMaxEntries)
}

func open(path string, maxEntries int) (*badgerJournal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerJournal{db: db, maxEntries: maxEntries}, nil
}

func entryKey(e Entry) []byte {
	// Zero-padded so lexical key order is time order.
	return []byte(fmt.Sprintf("%s%020d", runPrefix, e.Time.UnixNano()))
}

func (j *badgerJournal) Append(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry), data)
	})
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return j.prune()
}

// prune drops the oldest entries beyond maxEntries.
func (j *badgerJournal) prune() error {
	txn := j.db.NewTransaction(true)
	defer txn.Discard()

	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	prefix := []byte(runPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	excess := len(keys) - j.maxEntries
	if excess <= 0 {
		return nil
	}
	for _, key := range keys[:excess] {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
	}
	return txn.Commit()
}

// Recent returns up to n entries, newest first.
func (j *badgerJournal) Recent(ctx context.Context, n int) ([]Entry, error) {
	entries := []Entry{}
	if n <= 0 {
		return entries, nil
	}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runPrefix)
		seek := append([]byte(runPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

func (j *badgerJournal) Close() error {
	return j.db.Close()
}
