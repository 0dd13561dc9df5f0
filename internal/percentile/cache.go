package percentile

import "sync"

// SortedCache holds the sorted copy of exactly one source sample. The copy
// is rebuilt only when the caller presents a different version token or
// zero-exclusion policy; time and access patterns never invalidate it.
// The returned slice is shared and must not be modified.
type SortedCache struct {
	mu          sync.Mutex
	version     string
	excludeZero bool
	sorted      []float64
	valid       bool
	builds      int
}

// Get returns the sorted array for data identified by version, building it
// if the cache holds another version. An empty version never matches, so
// anonymous data is always re-sorted.
func (c *SortedCache) Get(version string, data [][]float64, excludeZero bool) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && version != "" && c.version == version && c.excludeZero == excludeZero {
		return c.sorted
	}
	c.sorted = SortFlatArray(data, excludeZero)
	c.version = version
	c.excludeZero = excludeZero
	c.valid = true
	c.builds++
	return c.sorted
}

// Peek returns the cached array if it was built for version.
func (c *SortedCache) Peek(version string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || version == "" || c.version != version {
		return nil, false
	}
	return c.sorted, true
}

// Invalidate drops the cached array.
func (c *SortedCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sorted = nil
	c.version = ""
	c.valid = false
}

// Builds reports how many times the sorted array has been computed.
func (c *SortedCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
