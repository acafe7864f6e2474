package geodist

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// Cache memoizes distance matrices by point index with LRU eviction. Cached
// matrices are shared and must be treated as read-only. It is safe for
// concurrent use.
type Cache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[uint64]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key    uint64
	points []domain.Point
	value  *mat.SymDense
	prev   *entry
	next   *entry
}

// NewCache creates a cache holding at most maxEntries matrices.
func NewCache(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		maxEntries: maxEntries,
		entries:    make(map[uint64]*entry),
	}
}

// Matrix returns the distance matrix for points, computing it on a miss.
func (c *Cache) Matrix(points []domain.Point) *mat.SymDense {
	key := digest(points)
	if v, ok := c.get(key, points); ok {
		return v
	}
	v := Matrix(points)
	c.put(key, points, v)
	return v
}

// Len returns the number of cached matrices.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(key uint64, points []domain.Point) (*mat.SymDense, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !slices.Equal(e.points, points) {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *Cache) put(key uint64, points []domain.Point, value *mat.SymDense) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.points = slices.Clone(points)
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, points: slices.Clone(points), value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *Cache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *Cache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

func digest(points []domain.Point) uint64 {
	d := xxhash.New()
	var buf [16]byte
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p.Lat))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Lon))
		d.Write(buf[:]) //nolint:errcheck // xxhash writes never fail
	}
	return d.Sum64()
}
