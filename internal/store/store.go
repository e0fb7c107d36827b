package store

import (
	"context"
	"errors"
)

// Bucket names. Values are JSON documents keyed as noted.
const (
	BucketVariants = "variants" // key = SKU
	BucketAccounts = "accounts" // key = user id
	BucketProducts = "products" // key = product id (decimal)
	BucketOrders   = "orders"   // key = order id (decimal)
	BucketLedger   = "ledger"   // append-only
)

// Sequence names for NextID.
const (
	SeqProducts = "products"
	SeqOrders   = "orders"
)

var ErrNotFound = errors.New("store: key not found")

// Store is a per-key document store. Implementations must make each call
// atomic on its own; cross-key atomicity is the caller's job (see KeyLocks).
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	List(ctx context.Context, bucket string) ([][]byte, error)

	// Append adds a value to an append-only bucket, preserving insertion order.
	Append(ctx context.Context, bucket string, value []byte) error

	// Log returns the contents of an append-only bucket in insertion order.
	Log(ctx context.Context, bucket string) ([][]byte, error)

	// NextID returns the next value of a monotonic sequence, starting at 1.
	// Safe under concurrent callers.
	NextID(ctx context.Context, seq string) (int64, error)
}
