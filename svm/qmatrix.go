package svm

// qMatrix gives the solver access to Q without materialising it.
type qMatrix interface {
	// getQ returns row i of Q, valid for columns [0, length).
	getQ(i, length int) []float32
	// getQD returns the diagonal of Q.
	getQD() []float64
	swapIndex(i, j int)
}

func cacheBytes(param Parameter) int64 {
	return int64(param.CacheSize * (1 << 20))
}

// svcQ is Q_ij = y_i y_j K(x_i, x_j).
type svcQ struct {
	k     *kernel
	y     []int8
	cache *cache
	qd    []float64
}

func newSVCQ(prob *Problem, param Parameter, y []int8) *svcQ {
	l := prob.L()
	q := &svcQ{
		k:     newKernel(prob.X, param),
		y:     append([]int8(nil), y...),
		cache: newCache(l, cacheBytes(param)),
		qd:    make([]float64, l),
	}
	for i := 0; i < l; i++ {
		q.qd[i] = q.k.eval(i, i)
	}
	return q
}

func (q *svcQ) getQ(i, length int) []float32 {
	data, start := q.cache.getData(i, length)
	for j := start; j < length; j++ {
		data[j] = float32(float64(q.y[i]*q.y[j]) * q.k.eval(i, j))
	}
	return data
}

func (q *svcQ) getQD() []float64 { return q.qd }

func (q *svcQ) swapIndex(i, j int) {
	q.cache.swapIndex(i, j)
	q.k.swapIndex(i, j)
	q.y[i], q.y[j] = q.y[j], q.y[i]
	q.qd[i], q.qd[j] = q.qd[j], q.qd[i]
}

// oneClassQ is Q_ij = K(x_i, x_j).
type oneClassQ struct {
	k     *kernel
	cache *cache
	qd    []float64
}

func newOneClassQ(prob *Problem, param Parameter) *oneClassQ {
	l := prob.L()
	q := &oneClassQ{
		k:     newKernel(prob.X, param),
		cache: newCache(l, cacheBytes(param)),
		qd:    make([]float64, l),
	}
	for i := 0; i < l; i++ {
		q.qd[i] = q.k.eval(i, i)
	}
	return q
}

func (q *oneClassQ) getQ(i, length int) []float32 {
	data, start := q.cache.getData(i, length)
	for j := start; j < length; j++ {
		data[j] = float32(q.k.eval(i, j))
	}
	return data
}

func (q *oneClassQ) getQD() []float64 { return q.qd }

func (q *oneClassQ) swapIndex(i, j int) {
	q.cache.swapIndex(i, j)
	q.k.swapIndex(i, j)
	q.qd[i], q.qd[j] = q.qd[j], q.qd[i]
}

// svrQ is the 2l×2l matrix of the doubled regression dual. Variable k < l is
// alpha_k, variable k+l is alpha*_k; both map to training row index[k]. The
// cache stores plain kernel rows of length l which are never swapped; the
// sign/index tables absorb the solver's permutations instead.
type svrQ struct {
	k      *kernel
	l      int
	cache  *cache
	sign   []int8
	index  []int
	buffer [2][]float32
	next   int
	qd     []float64
}

func newSVRQ(prob *Problem, param Parameter) *svrQ {
	l := prob.L()
	q := &svrQ{
		k:     newKernel(prob.X, param),
		l:     l,
		cache: newCache(l, cacheBytes(param)),
		sign:  make([]int8, 2*l),
		index: make([]int, 2*l),
		qd:    make([]float64, 2*l),
	}
	for k := 0; k < l; k++ {
		q.sign[k] = 1
		q.sign[k+l] = -1
		q.index[k] = k
		q.index[k+l] = k
		q.qd[k] = q.k.eval(k, k)
		q.qd[k+l] = q.qd[k]
	}
	q.buffer[0] = make([]float32, 2*l)
	q.buffer[1] = make([]float32, 2*l)
	return q
}

// getQ returns one of two alternating buffers, so the rows of the two
// working-set variables stay valid together.
func (q *svrQ) getQ(i, length int) []float32 {
	realI := q.index[i]
	data, start := q.cache.getData(realI, q.l)
	if start < q.l {
		for j := 0; j < q.l; j++ {
			data[j] = float32(q.k.eval(realI, j))
		}
	}

	buf := q.buffer[q.next]
	q.next = 1 - q.next
	si := float32(q.sign[i])
	for j := 0; j < length; j++ {
		buf[j] = si * float32(q.sign[j]) * data[q.index[j]]
	}
	return buf
}

func (q *svrQ) getQD() []float64 { return q.qd }

func (q *svrQ) swapIndex(i, j int) {
	q.sign[i], q.sign[j] = q.sign[j], q.sign[i]
	q.index[i], q.index[j] = q.index[j], q.index[i]
	q.qd[i], q.qd[j] = q.qd[j], q.qd[i]
}
