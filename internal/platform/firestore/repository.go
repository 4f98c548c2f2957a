package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document pairs a decoded entity with its document ID.
type Document[T any] struct {
	ID   string
	Data T
}

// QueryBuilder customises Firestore queries before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// Collection provides typed helpers over a single Firestore collection.
// Entities are written with Firestore struct tags and read back with DataTo.
type Collection[T any] struct {
	provider *Provider
	name     string
}

// NewCollection binds a typed helper to the named collection.
func NewCollection[T any](provider *Provider, name string) *Collection[T] {
	return &Collection[T]{provider: provider, name: strings.TrimSpace(name)}
}

// Set upserts value under id.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if _, err := doc.Set(ctx, value); err != nil {
		return WrapError(c.op("set"), err)
	}
	return nil
}

// Get fetches and decodes the document with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return zero, err
	}
	snapshot, err := doc.Get(ctx)
	if err != nil {
		return zero, WrapError(c.op("get"), err)
	}
	return Decode[T](snapshot)
}

// Delete removes the document with id. Deleting a missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return WrapError(c.op("delete"), err)
	}
	return nil
}

// Query executes a collection query and returns the decoded documents.
func (c *Collection[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	coll, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document[T]
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(c.op("query"), err)
		}
		entity, err := Decode[T](snapshot)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", snapshot.Ref.ID, err)
		}
		docs = append(docs, Document[T]{ID: snapshot.Ref.ID, Data: entity})
	}
	return docs, nil
}

// Ref returns the collection reference for transactional access.
func (c *Collection[T]) Ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c == nil || c.provider == nil {
		return nil, WrapError("firestore.collection", errors.New("firestore: provider is nil"))
	}
	if c.name == "" {
		return nil, WrapError("firestore.collection", errors.New("firestore: collection name is required"))
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

// Doc returns the document reference for id.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(c.op("document"), errors.New("firestore: document id is required"))
	}
	coll, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (c *Collection[T]) op(action string) string {
	return fmt.Sprintf("%s.%s", c.name, action)
}

// Decode hydrates T from a snapshot using Firestore's native decoding.
func Decode[T any](snapshot *firestore.DocumentSnapshot) (T, error) {
	var target T
	if err := snapshot.DataTo(&target); err != nil {
		return target, err
	}
	return target, nil
}
