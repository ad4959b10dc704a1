package resumable

import (
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/wippyai/resumable/machine"
)

var (
	cacheRequests = metrics.NewCounter(`resumable_cache_requests_total`)
	cacheMisses   = metrics.NewCounter(`resumable_cache_misses_total`)
)

const (
	cacheBucketCount = 16

	cacheMaxLen = 1024

	cacheBucketMaxLen = cacheMaxLen / cacheBucketCount

	cacheBucketFreePercent = 0.1
)

type cacheValue struct {
	progs []*machine.Program
	err   error
}

type cacheBucket struct {
	m        map[string]*cacheValue
	mu       sync.RWMutex
	requests atomic.Uint64
	misses   atomic.Uint64
}

// Cache memoizes CompileSource by source text. Programs are immutable, so
// callers share the cached values. Failed compilations are cached too.
// A Cache is safe for concurrent use.
type Cache struct {
	cfg     Config
	buckets [cacheBucketCount]cacheBucket
}

// NewCache returns an empty cache compiling with cfg.
func NewCache(cfg Config) *Cache {
	c := &Cache{cfg: cfg}
	for i := range c.buckets {
		c.buckets[i].m = make(map[string]*cacheValue, cacheBucketMaxLen)
	}
	return c
}

// CompileSource returns the programs defined by src, compiling on a miss.
func (c *Cache) CompileSource(src string) ([]*machine.Program, error) {
	b := c.bucket(src)
	if v := b.get(src); v != nil {
		return v.progs, v.err
	}
	progs, err := CompileSource(src, c.cfg)
	b.put(src, &cacheValue{progs: progs, err: err})
	return progs, err
}

// Requests returns the number of lookups.
func (c *Cache) Requests() uint64 {
	var n uint64
	for i := range c.buckets {
		n += c.buckets[i].requests.Load()
	}
	return n
}

// Misses returns the number of lookups that compiled.
func (c *Cache) Misses() uint64 {
	var n uint64
	for i := range c.buckets {
		n += c.buckets[i].misses.Load()
	}
	return n
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	n := 0
	for i := range c.buckets {
		b := &c.buckets[i]
		b.mu.RLock()
		n += len(b.m)
		b.mu.RUnlock()
	}
	return n
}

func (c *Cache) bucket(src string) *cacheBucket {
	return &c.buckets[xxhash.Sum64String(src)%cacheBucketCount]
}

func (b *cacheBucket) get(src string) *cacheValue {
	b.requests.Add(1)
	cacheRequests.Inc()

	b.mu.RLock()
	v := b.m[src]
	b.mu.RUnlock()

	if v == nil {
		b.misses.Add(1)
		cacheMisses.Inc()
	}
	return v
}

func (b *cacheBucket) put(src string, v *cacheValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.m) >= cacheBucketMaxLen {
		// drop a tenth of the bucket in map order
		n := int(float64(len(b.m)) * cacheBucketFreePercent)
		for k := range b.m {
			if n <= 0 {
				break
			}
			delete(b.m, k)
			n--
		}
	}
	b.m[src] = v
}
