// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
)

// Key prefixes for BadgerDB storage. Event keys embed a zero-padded
// nanosecond timestamp so iteration order is timestamp order.
const (
	eventKeyPrefix = "event:"
	keyedKeyPrefix = "kv:"
)

// BadgerStore implements Store on BadgerDB. Badger serializes updates per
// key, which gives sessions the per-row update semantics the tracker relies
// on, and its native TTL backs the keyed-value expiry.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Options configures a BadgerStore.
type Options struct {
	// Path is the on-disk location. Ignored when InMemory is set.
	Path string

	// InMemory runs Badger without disk persistence. Used in tests.
	InMemory bool
}

// Open opens a BadgerDB-backed store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(opts Options, logger zerolog.Logger) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// AppendEvent writes one immutable event to the log.
func (s *BadgerStore) AppendEvent(ctx context.Context, event *models.UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := []byte(eventKey(event))
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// eventKey builds a timestamp-ordered key for an event. The UUID suffix
// keeps keys unique for events sharing a nanosecond.
func eventKey(event *models.UserEvent) string {
	return fmt.Sprintf("%s%020d:%s", eventKeyPrefix, event.Timestamp.UnixNano(), event.ID)
}

// QueryEvents returns events matching the filter in timestamp order.
func (s *BadgerStore) QueryEvents(ctx context.Context, filter EventFilter) ([]models.UserEvent, error) {
	var events []models.UserEvent

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seek := []byte(eventKeyPrefix)
		if !filter.From.IsZero() {
			seek = []byte(fmt.Sprintf("%s%020d", eventKeyPrefix, filter.From.UnixNano()))
		}

		prefix := []byte(eventKeyPrefix)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var event models.UserEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("unmarshal event: %w", err)
			}

			// Keys are timestamp ordered, so the first event at or
			// past To ends the scan.
			if !filter.To.IsZero() && !event.Timestamp.Before(filter.To) {
				break
			}

			if filter.Matches(&event) {
				events = append(events, event)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// UpsertKeyed stores value under key, replacing any prior value.
func (s *BadgerStore) UpsertKeyed(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal keyed value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyedKeyPrefix+key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// GetKeyed unmarshals the value under key into dest. Badger drops expired
// entries on read, so TTL enforcement needs no bookkeeping here.
func (s *BadgerStore) GetKeyed(ctx context.Context, key string, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyedKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get keyed value: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// DeleteKeyed removes the value under key.
func (s *BadgerStore) DeleteKeyed(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyedKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
