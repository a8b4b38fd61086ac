package svm

// cacheRow is one cached kernel row, linked into the LRU list while non-empty.
type cacheRow struct {
	prev, next *cacheRow
	data       []float32
}

// cache holds kernel rows under a budget counted in float32 entries.
// Rows are evicted whole, least recently used first. It is not safe for
// concurrent use; every solve owns one.
type cache struct {
	l    int
	size int64
	rows []cacheRow
	lru  cacheRow // sentinel
}

const cacheRowOverhead = 16 // bytes of bookkeeping charged per row

func newCache(l int, sizeBytes int64) *cache {
	c := &cache{l: l, rows: make([]cacheRow, l)}
	c.size = sizeBytes / 4
	c.size -= int64(l) * (cacheRowOverhead / 4)
	if floor := int64(2 * l); c.size < floor {
		c.size = floor // room for two full rows
	}
	c.lru.prev = &c.lru
	c.lru.next = &c.lru
	return c
}

func (c *cache) unlink(h *cacheRow) {
	h.prev.next = h.next
	h.next.prev = h.prev
}

// link appends h as the most recently used row.
func (c *cache) link(h *cacheRow) {
	h.next = &c.lru
	h.prev = c.lru.prev
	h.prev.next = h
	h.next.prev = h
}

func (c *cache) drop(h *cacheRow) {
	c.unlink(h)
	c.size += int64(len(h.data))
	h.data = nil
}

// getData returns row i with room for at least length columns and the first
// column that the caller still has to fill (length when nothing is missing).
func (c *cache) getData(i, length int) ([]float32, int) {
	h := &c.rows[i]
	if len(h.data) > 0 {
		c.unlink(h)
	}
	start := length
	if more := length - len(h.data); more > 0 {
		for c.size < int64(more) {
			c.drop(c.lru.next)
		}
		data := make([]float32, length)
		copy(data, h.data)
		start = len(h.data)
		h.data = data
		c.size -= int64(more)
	}
	c.link(h)
	return h.data, start
}

// swapIndex mirrors a solver permutation of variables i and j. Rows that hold
// column i but not column j cannot be permuted and are dropped.
func (c *cache) swapIndex(i, j int) {
	if i == j {
		return
	}
	hi, hj := &c.rows[i], &c.rows[j]
	if len(hi.data) > 0 {
		c.unlink(hi)
	}
	if len(hj.data) > 0 {
		c.unlink(hj)
	}
	hi.data, hj.data = hj.data, hi.data
	if len(hi.data) > 0 {
		c.link(hi)
	}
	if len(hj.data) > 0 {
		c.link(hj)
	}

	if i > j {
		i, j = j, i
	}
	for h := c.lru.next; h != &c.lru; {
		next := h.next
		if len(h.data) > i {
			if len(h.data) > j {
				h.data[i], h.data[j] = h.data[j], h.data[i]
			} else {
				c.drop(h)
			}
		}
		h = next
	}
}
