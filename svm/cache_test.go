package svm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(data []float32, start, row int) {
	for j := start; j < len(data); j++ {
		data[j] = float32(row*100 + j)
	}
}

func TestCacheGetDataPartialRows(t *testing.T) {
	c := newCache(4, 1<<20)

	data, start := c.getData(1, 2)
	assert.Equal(t, 0, start)
	require.Len(t, data, 2)
	fill(data, start, 1)

	data, start = c.getData(1, 2)
	assert.Equal(t, 2, start, "fully cached row needs no work")

	data, start = c.getData(1, 4)
	assert.Equal(t, 2, start, "extending a row keeps the computed prefix")
	assert.Equal(t, []float32{100, 101, 0, 0}, data)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	const l = 4
	// budget of exactly two full rows after the per-row overhead
	c := newCache(l, int64(2*l*4+l*cacheRowOverhead))
	require.Equal(t, int64(2*l), c.size)

	for _, i := range []int{0, 1} {
		data, start := c.getData(i, l)
		fill(data, start, i)
	}
	_, start := c.getData(0, l) // 0 becomes most recent
	assert.Equal(t, l, start)

	data, start := c.getData(2, l) // evicts 1
	fill(data, start, 2)
	assert.Equal(t, 0, start)
	assert.Empty(t, c.rows[1].data)
	assert.NotEmpty(t, c.rows[0].data)

	_, start = c.getData(1, l)
	assert.Equal(t, 0, start, "evicted row is recomputed")
}

func TestCacheSwapIndex(t *testing.T) {
	c := newCache(4, 1<<20)
	full, _ := c.getData(0, 4)
	fill(full, 0, 0)
	short, _ := c.getData(1, 2)
	fill(short, 0, 1)

	c.swapIndex(1, 3)

	// row 0 had both columns and is permuted, row 1 moved to slot 3 and lost column 3
	assert.Equal(t, []float32{0, 3, 2, 1}, c.rows[0].data)
	assert.Empty(t, c.rows[1].data)
	assert.Empty(t, c.rows[3].data, "row without column 3 cannot be permuted and is dropped")
}

// A cached Q row must always equal a fresh evaluation, including after the
// solver permutes variables and the budget forces evictions.
func TestCachedRowsMatchKernelAfterSwaps(t *testing.T) {
	prob := blobs(11, 15, [][]float64{{0, 0}, {2, 1}}, []float64{1, -1}, 0.8)
	l := prob.L()
	param := DefaultParameter()
	param.Gamma = 0.5
	y := make([]int8, l)
	for i := range y {
		y[i] = labelSign(prob.Y[i])
	}

	q := newSVCQ(prob, param, y)
	q.cache = newCache(l, int64(3*l*4+l*cacheRowOverhead)) // three rows

	perm := make([]int, l)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(5, 5))
	for step := 0; step < 200; step++ {
		if step%3 == 0 {
			i, j := rng.IntN(l), rng.IntN(l)
			q.swapIndex(i, j)
			perm[i], perm[j] = perm[j], perm[i]
		}
		i := rng.IntN(l)
		length := 1 + rng.IntN(l)
		row := q.getQ(i, length)
		for j := 0; j < length; j++ {
			want := float64(y[perm[i]]*y[perm[j]]) * KernelValue(prob.X[perm[i]], prob.X[perm[j]], param)
			require.InDelta(t, want, float64(row[j]), 1e-6, "step %d row %d col %d", step, i, j)
		}
	}
}
