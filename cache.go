package peg

import lru "github.com/hashicorp/golang-lru/v2"

// starterCharEntry is the memoised result of GetStarterChar for one
// matcher: Char is meaningless when Ok is false.
type starterCharEntry struct {
	Char rune
	Ok   bool
}

// StarterCharCache memoises GetStarterChar by matcher identity. A
// grammar's matcher tree is built once and never mutated afterwards,
// so a cache entry is valid for the lifetime of the process; nothing
// ever invalidates it.
//
// Entries are added lazily, the first time a matcher is asked about.
// Safe for concurrent use by multiple parses sharing one matcher tree:
// golang-lru's Cache is internally mutex-guarded.
type StarterCharCache struct {
	cache *lru.Cache[Matcher, starterCharEntry]
}

// NewStarterCharCache returns a cache holding up to size entries,
// evicting least-recently-used matchers once full. A grammar rarely
// has more than a few hundred distinct matcher nodes, so size is a
// safety valve against unbounded growth rather than a real constraint.
func NewStarterCharCache(size int) *StarterCharCache {
	cache, err := lru.New[Matcher, starterCharEntry](size)
	if err != nil {
		// size <= 0; golang-lru rejects that outright rather than
		// silently treating it as unbounded.
		panic(NewInvariantViolation("starter char cache: " + err.Error()))
	}
	return &StarterCharCache{cache: cache}
}

// GetStarterChar is the cached equivalent of the package-level
// GetStarterChar visitor.
func (c *StarterCharCache) GetStarterChar(m Matcher) (rune, bool) {
	if entry, found := c.cache.Get(m); found {
		return entry.Char, entry.Ok
	}
	ch, ok := GetStarterChar(m)
	c.cache.Add(m, starterCharEntry{Char: ch, Ok: ok})
	return ch, ok
}
