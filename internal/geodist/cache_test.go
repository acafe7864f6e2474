package geodist

import (
	"sync"
	"testing"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func grid(n int) []domain.Point {
	pts := make([]domain.Point, n)
	for i := range pts {
		pts[i] = domain.Point{Lat: float64(i), Lon: float64(2 * i)}
	}
	return pts
}

func TestCache_Hit(t *testing.T) {
	c := NewCache(4)
	pts := grid(3)

	a := c.Matrix(pts)
	b := c.Matrix(grid(3))

	assert.Same(t, a, b, "second lookup should return the cached matrix")
	assert.True(t, mat.Equal(Matrix(pts), a))
	assert.Equal(t, 1, c.Len())
}

func TestCache_DistinctIndexes(t *testing.T) {
	c := NewCache(4)
	a := c.Matrix(grid(3))
	b := c.Matrix(grid(4))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)

	first := c.Matrix(grid(1))
	c.Matrix(grid(2))
	c.Matrix(grid(1)) // touch, grid(2) is now least recent
	c.Matrix(grid(3)) // evicts grid(2)

	assert.Equal(t, 2, c.Len())
	assert.Same(t, first, c.Matrix(grid(1)))
}

func TestCache_StoresCopyOfIndex(t *testing.T) {
	c := NewCache(2)
	pts := grid(2)
	a := c.Matrix(pts)
	pts[0] = domain.Point{Lat: 50, Lon: 50}

	assert.Same(t, a, c.Matrix(grid(2)))
}

func TestCache_ConcurrentUse(t *testing.T) {
	c := NewCache(2)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := c.Matrix(grid(5))
			assert.Equal(t, 5, m.SymmetricDim())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
