// Package store keeps the shop's flat collections (products, categories,
// users, orders). Every collection is an ordered sequence of JSON records
// that is read whole and replaced whole.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const (
	Products   = "products"
	Categories = "categories"
	Users      = "users"
	Orders     = "orders"
)

// Backend persists raw records per collection. Load returns an empty slice
// when the collection does not exist yet.
type Backend interface {
	Load(ctx context.Context, collection string) ([]json.RawMessage, error)
	Replace(ctx context.Context, collection string, records []json.RawMessage) error
}

// Collection is a typed view over one backend collection.
type Collection[T any] struct {
	backend Backend
	name    string
}

func NewCollection[T any](b Backend, name string) *Collection[T] {
	return &Collection[T]{backend: b, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	raws, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", c.name, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	raws := make([]json.RawMessage, 0, len(items))
	for i, it := range items {
		raw, err := encode(it)
		if err != nil {
			return fmt.Errorf("encode %s[%d]: %w", c.name, i, err)
		}
		raws = append(raws, raw)
	}
	if err := c.backend.Replace(ctx, c.name, raws); err != nil {
		return fmt.Errorf("replace %s: %w", c.name, err)
	}
	return nil
}

// encode keeps '<', '>' and '&' literal so stored text reads like the input.
func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
