package store

import (
	"context"
	"encoding/json"
	"fmt"
)

type docKey struct {
	kind Kind
	id   string
}

// Session is the unit of work of one event: an identity map over the
// backend plus the buffered upserts and removals, written by Flush.
type Session struct {
	ctx     context.Context
	backend Backend

	loaded  map[docKey]Document
	absent  map[docKey]bool
	removed map[docKey]bool
	pending map[docKey]bool
	order   []docKey

	afterFlush []func()
}

func NewSession(ctx context.Context, backend Backend) *Session {
	return &Session{
		ctx:     ctx,
		backend: backend,
		loaded:  make(map[docKey]Document),
		absent:  make(map[docKey]bool),
		removed: make(map[docKey]bool),
		pending: make(map[docKey]bool),
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func kindOf[T any, PT interface {
	*T
	Document
}]() Kind {
	return PT(new(T)).DocumentKind()
}

// Load returns the document with the given id, or nil when it does not
// exist. Repeated loads within a session return the same pointer.
func Load[T any, PT interface {
	*T
	Document
}](s *Session, id string) (PT, error) {
	key := docKey{kind: kindOf[T, PT](), id: id}
	if s.removed[key] || s.absent[key] {
		return nil, nil
	}
	if doc, ok := s.loaded[key]; ok {
		typed, ok := doc.(PT)
		if !ok {
			return nil, fmt.Errorf("document %s/%s has unexpected type %T", key.kind, id, doc)
		}
		return typed, nil
	}

	body, found, err := s.backend.Get(s.ctx, key.kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", key.kind, id, err)
	}
	if !found {
		s.absent[key] = true
		return nil, nil
	}
	doc := PT(new(T))
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", key.kind, id, err)
	}
	s.loaded[key] = doc
	return doc, nil
}

// FindOne returns the document of type T indexed under assetID with the
// given status, taking unflushed changes of this session into account. When
// several match, the one with the greatest position wins.
func FindOne[T any, PT interface {
	*T
	Document
}](s *Session, assetID string, status string) (PT, error) {
	kind := kindOf[T, PT]()
	ids, err := s.backend.FindIDs(s.ctx, kind, assetID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for asset %s: %w", kind, assetID, err)
	}

	var best PT
	consider := func(doc PT) {
		idx := doc.DocumentIndex()
		if idx.AssetID != assetID || idx.Status != status {
			return
		}
		if best == nil {
			best = doc
			return
		}
		bestIdx := best.DocumentIndex()
		if idx.Position > bestIdx.Position ||
			(idx.Position == bestIdx.Position && doc.DocumentID() > best.DocumentID()) {
			best = doc
		}
	}

	for _, id := range ids {
		doc, err := Load[T, PT](s, id)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			consider(doc)
		}
	}
	for key, doc := range s.loaded {
		if key.kind != kind {
			continue
		}
		if typed, ok := doc.(PT); ok {
			consider(typed)
		}
	}
	return best, nil
}

// Upsert schedules doc to be written on Flush.
func (s *Session) Upsert(doc Document) {
	key := docKey{kind: doc.DocumentKind(), id: doc.DocumentID()}
	s.loaded[key] = doc
	delete(s.absent, key)
	delete(s.removed, key)
	s.markPending(key)
}

// Remove schedules the document to be deleted on Flush. Removing a missing
// document is not an error.
func (s *Session) Remove(kind Kind, id string) {
	key := docKey{kind: kind, id: id}
	delete(s.loaded, key)
	s.removed[key] = true
	s.markPending(key)
}

func (s *Session) markPending(key docKey) {
	if !s.pending[key] {
		s.pending[key] = true
		s.order = append(s.order, key)
	}
}

// Mutations returns the writes buffered so far, in first-touched order.
func (s *Session) Mutations() ([]Mutation, error) {
	mutations := make([]Mutation, 0, len(s.order))
	for _, key := range s.order {
		if s.removed[key] {
			mutations = append(mutations, Mutation{Kind: key.kind, ID: key.id, Delete: true})
			continue
		}
		doc := s.loaded[key]
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s/%s: %w", key.kind, key.id, err)
		}
		mutations = append(mutations, Mutation{
			Kind:  key.kind,
			ID:    key.id,
			Index: doc.DocumentIndex(),
			Body:  body,
		})
	}
	return mutations, nil
}

// AfterFlush registers fn to run once the next Flush has succeeded. A failed
// Flush drops nothing; the hooks wait for a successful one.
func (s *Session) AfterFlush(fn func()) {
	s.afterFlush = append(s.afterFlush, fn)
}

// Flush applies every buffered write in one backend transaction.
func (s *Session) Flush() error {
	mutations, err := s.Mutations()
	if err != nil {
		return err
	}
	if len(mutations) > 0 {
		if err := s.backend.Apply(s.ctx, mutations); err != nil {
			return fmt.Errorf("failed to flush %d mutations: %w", len(mutations), err)
		}
	}
	s.pending = make(map[docKey]bool)
	s.order = nil

	hooks := s.afterFlush
	s.afterFlush = nil
	for _, fn := range hooks {
		fn()
	}
	return nil
}
