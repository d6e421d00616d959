package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Keyer is the identity contract shared by FragmentRequest and Request:
// Equal(a, b) must imply a.Hash() == b.Hash().
type Keyer[T any] interface {
	Equal(other T) bool
	Hash() uint64
}

// RequestCache memoizes payloads by request value. Hash equality is
// necessary but not sufficient evidence of request equality, so entries
// sharing a hash live in one bucket and lookups confirm with Equal before
// returning a hit. Bounded LRU over hash buckets; not safe for concurrent
// mutation without external synchronization beyond what the underlying LRU
// provides for its own bookkeeping.
type RequestCache[K Keyer[K], V any] struct {
	buckets *lru.Cache[uint64, []requestEntry[K, V]]
}

type requestEntry[K Keyer[K], V any] struct {
	request K
	value   V
}

// NewRequestCache builds a cache bounded to size hash buckets.
func NewRequestCache[K Keyer[K], V any](size int) (*RequestCache[K, V], error) {
	buckets, err := lru.New[uint64, []requestEntry[K, V]](size)
	if err != nil {
		return nil, err
	}
	return &RequestCache[K, V]{buckets: buckets}, nil
}

// Get returns the payload memoized for a request equal to req.
func (rc *RequestCache[K, V]) Get(req K) (V, bool) {
	entries, ok := rc.buckets.Get(req.Hash())
	if !ok {
		var zero V
		return zero, false
	}
	for _, entry := range entries {
		if entry.request.Equal(req) {
			return entry.value, true
		}
	}
	var zero V
	return zero, false
}

// Add memoizes value under req, replacing the payload of an equal request.
func (rc *RequestCache[K, V]) Add(req K, value V) {
	hash := req.Hash()
	entries, _ := rc.buckets.Get(hash)
	for i, entry := range entries {
		if entry.request.Equal(req) {
			entries[i].value = value
			rc.buckets.Add(hash, entries)
			return
		}
	}
	entries = append(entries, requestEntry[K, V]{request: req, value: value})
	rc.buckets.Add(hash, entries)
}

// Len returns the number of live hash buckets.
func (rc *RequestCache[K, V]) Len() int {
	return rc.buckets.Len()
}
