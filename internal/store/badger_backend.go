package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores each document under doc/<kind>/<id> and maintains two
// secondary key families in the same transaction:
//
//	idx/<kind>/<asset>/<status>/<id>   status lookups
//	pos/<kind>/<asset>/<position>/<id> ordered listing
type BadgerBackend struct {
	kv *badger.DB
}

func NewBadgerBackend(kv *badger.DB) *BadgerBackend {
	return &BadgerBackend{kv: kv}
}

type envelope struct {
	AssetID  string          `json:"asset_id"`
	Status   string          `json:"status"`
	Position string          `json:"position"`
	Body     json.RawMessage `json:"body"`
}

func docKeyBytes(kind Kind, id string) []byte {
	return []byte("doc/" + string(kind) + "/" + id)
}

func statusPrefix(kind Kind, assetID, status string) []byte {
	return []byte("idx/" + string(kind) + "/" + assetID + "/" + status + "/")
}

func positionPrefix(kind Kind, assetID string) []byte {
	return []byte("pos/" + string(kind) + "/" + assetID + "/")
}

func positionKey(kind Kind, assetID, position, id string) []byte {
	return append(positionPrefix(kind, assetID), []byte(position+"/"+id)...)
}

func readEnvelope(txn *badger.Txn, key []byte) (*envelope, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	})
	if err != nil {
		return nil, err
	}
	return &env, nil
}

func (b *BadgerBackend) Get(ctx context.Context, kind Kind, id string) ([]byte, bool, error) {
	var body []byte
	err := b.kv.View(func(txn *badger.Txn) error {
		env, err := readEnvelope(txn, docKeyBytes(kind, id))
		if err != nil || env == nil {
			return err
		}
		body = append([]byte(nil), env.Body...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return body, body != nil, nil
}

func (b *BadgerBackend) FindIDs(ctx context.Context, kind Kind, assetID string, status string) ([]string, error) {
	prefix := statusPrefix(kind, assetID, status)
	var ids []string
	err := b.kv.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(bytes.TrimPrefix(key, prefix)))
		}
		return nil
	})
	return ids, err
}

func (b *BadgerBackend) List(ctx context.Context, kind Kind, assetID string, page int, pageSize int) (int, [][]byte, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	prefix := positionPrefix(kind, assetID)

	var total int
	var bodies [][]byte
	err := b.kv.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Rewind(); it.Valid(); it.Next() {
			if total >= offset && total < offset+pageSize {
				rest := string(bytes.TrimPrefix(it.Item().Key(), prefix))
				// position never contains '/', so the id is everything after the first one
				if i := bytes.IndexByte([]byte(rest), '/'); i >= 0 {
					ids = append(ids, rest[i+1:])
				}
			}
			total++
		}

		for _, id := range ids {
			env, err := readEnvelope(txn, docKeyBytes(kind, id))
			if err != nil {
				return err
			}
			if env == nil {
				return fmt.Errorf("dangling position key for %s/%s", kind, id)
			}
			bodies = append(bodies, append([]byte(nil), env.Body...))
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return total, bodies, nil
}

func (b *BadgerBackend) Apply(ctx context.Context, mutations []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.kv.Update(func(txn *badger.Txn) error {
		for _, m := range mutations {
			key := docKeyBytes(m.Kind, m.ID)
			previous, err := readEnvelope(txn, key)
			if err != nil {
				return fmt.Errorf("read %s/%s: %w", m.Kind, m.ID, err)
			}
			if previous != nil && previous.AssetID != "" {
				if err := txn.Delete(append(statusPrefix(m.Kind, previous.AssetID, previous.Status), m.ID...)); err != nil {
					return err
				}
				if err := txn.Delete(positionKey(m.Kind, previous.AssetID, previous.Position, m.ID)); err != nil {
					return err
				}
			}

			if m.Delete {
				if previous != nil {
					if err := txn.Delete(key); err != nil {
						return err
					}
				}
				continue
			}

			value, err := json.Marshal(envelope{
				AssetID:  m.Index.AssetID,
				Status:   m.Index.Status,
				Position: m.Index.Position,
				Body:     m.Body,
			})
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
			if m.Index.AssetID != "" {
				if err := txn.Set(append(statusPrefix(m.Kind, m.Index.AssetID, m.Index.Status), m.ID...), nil); err != nil {
					return err
				}
				if err := txn.Set(positionKey(m.Kind, m.Index.AssetID, m.Index.Position, m.ID), nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *BadgerBackend) Close() error {
	return b.kv.Close()
}

func (b *BadgerBackend) Walk(ctx context.Context, kind Kind, fn func(Record) error) error {
	prefix := []byte("doc/")
	if kind != "" {
		prefix = []byte(fmt.Sprintf("doc/%s/", kind))
	}
	return b.kv.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rest := string(bytes.TrimPrefix(it.Item().Key(), []byte("doc/")))
			i := bytes.IndexByte([]byte(rest), '/')
			if i < 0 {
				continue
			}
			var env envelope
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			rec := Record{
				Kind:  Kind(rest[:i]),
				ID:    rest[i+1:],
				Index: Index{AssetID: env.AssetID, Status: env.Status, Position: env.Position},
				Body:  append([]byte(nil), env.Body...),
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
