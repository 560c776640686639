package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Get reads a single document outside of any session.
func Get[T any, PT interface {
	*T
	Document
}](ctx context.Context, backend Backend, id string) (PT, error) {
	kind := kindOf[T, PT]()
	body, found, err := backend.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
	}
	doc := PT(new(T))
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", kind, id, err)
	}
	return doc, nil
}

// List pages through the documents of type T attached to assetID.
func List[T any, PT interface {
	*T
	Document
}](ctx context.Context, backend Backend, assetID string, page int, pageSize int) (int, []PT, error) {
	kind := kindOf[T, PT]()
	total, bodies, err := backend.List(ctx, kind, assetID, page, pageSize)
	if err != nil {
		return 0, nil, err
	}
	docs := make([]PT, 0, len(bodies))
	for _, body := range bodies {
		doc := PT(new(T))
		if err := json.Unmarshal(body, doc); err != nil {
			return 0, nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		docs = append(docs, doc)
	}
	return total, docs, nil
}
