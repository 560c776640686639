// Package store is the entity store of the materialized marketplace view.
//
// Entities are JSON documents keyed by (kind, id). Every document also
// exposes a small index (asset id, status, position) so the engine can ask
// for "the open listing of this asset" without holding any state in memory
// between events. Writes of one event are buffered in a Session and applied
// atomically by the Backend.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

type Kind string

// Index holds the queryable attributes of a document. Documents with an
// empty AssetID are reachable by id only.
type Index struct {
	AssetID  string
	Status   string
	Position string
}

type Document interface {
	DocumentKind() Kind
	DocumentID() string
	DocumentIndex() Index
}

type Mutation struct {
	Kind   Kind
	ID     string
	Index  Index
	Body   []byte
	Delete bool
}

type Backend interface {
	Get(ctx context.Context, kind Kind, id string) (body []byte, found bool, err error)
	// FindIDs returns the ids of documents of kind indexed under assetID with the given status.
	FindIDs(ctx context.Context, kind Kind, assetID string, status string) ([]string, error)
	// List pages through documents of kind indexed under assetID, ordered by position.
	List(ctx context.Context, kind Kind, assetID string, page int, pageSize int) (total int, bodies [][]byte, err error)
	// Apply writes all mutations or none of them.
	Apply(ctx context.Context, mutations []Mutation) error
	Close() error
}

// Record is a stored document together with its index entry.
type Record struct {
	Kind  Kind
	ID    string
	Index Index
	Body  []byte
}

// Walker is implemented by backends that can enumerate their whole contents.
// An empty kind walks every kind. Records arrive ordered by kind then id.
type Walker interface {
	Walk(ctx context.Context, kind Kind, fn func(Record) error) error
}
