package store

import (
	"sort"
	"strconv"
	"sync"
)

// KeyLocks serializes multi-key read-modify-write sections. Callers name every
// key they will touch up front; Acquire sorts and dedupes them and locks in
// that order, so two sections over overlapping key sets can never deadlock.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*sync.Mutex)}
}

func (kl *KeyLocks) get(key string) *sync.Mutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	m, ok := kl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[key] = m
	}
	return m
}

// Acquire locks every key and returns a release func. Keys are held until
// release; operations on disjoint key sets proceed concurrently.
func (kl *KeyLocks) Acquire(keys ...string) (release func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		m := kl.get(k)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Lock key namespaces. One order transition locks the order key, the owner's
// account key, and every variant key it touches.
const (
	KeyOrderPrefix   = "order/"
	KeyAccountPrefix = "account/"
	KeyVariantPrefix = "variant/"
)

func OrderKey(id int64) string { return KeyOrderPrefix + strconv.FormatInt(id, 10) }

func AccountKey(uid string) string { return KeyAccountPrefix + uid }

func VariantKey(sku string) string { return KeyVariantPrefix + sku }
