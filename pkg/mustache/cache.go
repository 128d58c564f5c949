package mustache

import (
	"sync/atomic"

	"github.com/alphadose/haxmap"
)

// Cache stores compiled token trees. Implementations must be safe for
// concurrent use; cached trees are shared and never modified after Set.
type Cache interface {
	Get(key string) ([]Token, bool)
	Set(key string, tokens []Token)
	Clear()
	Len() int
}

// MemoryCache is an unbounded, concurrency-safe Cache. Entries live until
// Clear is called.
type MemoryCache struct {
	m atomic.Pointer[haxmap.Map[string, []Token]]
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	c.m.Store(haxmap.New[string, []Token]())
	return c
}

func (c *MemoryCache) Get(key string) ([]Token, bool) {
	return c.m.Load().Get(key)
}

// Set stores tokens under key. Concurrent Sets of the same key store
// equivalent trees, so the last write winning is harmless.
func (c *MemoryCache) Set(key string, tokens []Token) {
	c.m.Load().Set(key, tokens)
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.m.Store(haxmap.New[string, []Token]())
}

func (c *MemoryCache) Len() int {
	return int(c.m.Load().Len())
}

// NoCache disables caching; every render compiles its template again.
type NoCache struct{}

func (NoCache) Get(string) ([]Token, bool) { return nil, false }
func (NoCache) Set(string, []Token)        {}
func (NoCache) Clear()                     {}
func (NoCache) Len() int                   { return 0 }

func cacheKey(template string, tags Tags) string {
	return template + "\x00" + tags[0] + "\x00" + tags[1]
}
