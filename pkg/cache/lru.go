package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultMemorySize is the default memory budget of the tree cache (64 MB).
const DefaultMemorySize = 64 * 1024 * 1024

// bytesPerKB is the number of bytes in a kilobyte.
const bytesPerKB = 1024.0

// Memory is an in-process LRU of encoded syntax trees. It tracks the byte
// size of its entries and evicts least recently used entries once the
// budget is exceeded.
type Memory struct {
	mu          sync.RWMutex
	entries     map[Key]*lruEntry
	head        *lruEntry // Most recently used.
	tail        *lruEntry // Least recently used.
	maxSize     int64
	currentSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key         Key
	data        []byte
	size        int64
	accessCount int64
	prev        *lruEntry
	next        *lruEntry
}

// evictionCost is higher for small, frequently read entries; the lowest
// cost entry among the sampled tail is evicted first.
func (entry *lruEntry) evictionCost() float64 {
	if entry.size == 0 {
		return float64(entry.accessCount)
	}

	sizeKB := float64(entry.size) / bytesPerKB
	if sizeKB < 1 {
		sizeKB = 1
	}

	return float64(entry.accessCount) / sizeKB
}

// NewMemory creates a memory cache bounded to maxSize bytes. A non-positive
// maxSize selects DefaultMemorySize.
func NewMemory(maxSize int64) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMemorySize
	}

	return &Memory{
		entries: make(map[Key]*lruEntry),
		maxSize: maxSize,
	}
}

// Get returns the entry stored under key.
func (c *Memory) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)

	entry.accessCount++
	c.moveToFront(entry)

	return entry.data, true
}

// Put stores a copy of data under key. Entries larger than the whole
// budget are ignored.
func (c *Memory) Put(key Key, data []byte) error {
	size := int64(len(data))
	if size > c.maxSize {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.accessCount++
		c.moveToFront(entry)

		return nil
	}

	for c.currentSize+size > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}

	entry := &lruEntry{
		key:         key,
		data:        append([]byte(nil), data...),
		size:        size,
		accessCount: 1,
	}

	c.entries[key] = entry
	c.currentSize += size
	c.addToFront(entry)

	return nil
}

// Stats returns cache statistics.
func (c *Memory) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Clear removes all entries from the cache.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*lruEntry)
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

func (c *Memory) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *Memory) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *Memory) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictionSampleSize is the number of tail entries considered per eviction.
const evictionSampleSize = 5

func (c *Memory) evictLowestCost() {
	if c.tail == nil {
		return
	}

	var candidates [evictionSampleSize]*lruEntry

	count := 0

	for entry := c.tail; entry != nil && count < evictionSampleSize; entry = entry.prev {
		candidates[count] = entry
		count++
	}

	victim := candidates[0]
	lowestCost := victim.evictionCost()

	for idx := 1; idx < count; idx++ {
		if cost := candidates[idx].evictionCost(); cost < lowestCost {
			lowestCost = cost
			victim = candidates[idx]
		}
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size
}
