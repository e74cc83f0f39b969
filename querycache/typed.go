package querycache

import (
	"context"

	"github.com/pkg/errors"
)

// Get reads a query and asserts its data type.
func Get[T any](ctx context.Context, c *Cache, key Key) (T, error) {
	var zero T
	data, err := c.Read(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		return zero, errors.Errorf("query %s holds %T", key, data)
	}
	return typed, nil
}
