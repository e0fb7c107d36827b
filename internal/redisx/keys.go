package redisx

import "time"

const (
	// Cache of full order JSON: order:{order_id}. Written on create and on
	// every transition, read by GET order before falling back to the store.
	KeyOrder = "order:%d"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
