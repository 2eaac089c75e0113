package orderbook

// bidPriceHeap keeps bid prices with the highest on top.
// Manipulate through container/heap (Init, Push, Pop, Remove).
type bidPriceHeap []float64

func (h bidPriceHeap) Len() int           { return len(h) }
func (h bidPriceHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h bidPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *bidPriceHeap) Push(x interface{}) {
	*h = append(*h, x.(float64))
}

func (h *bidPriceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func (h bidPriceHeap) Peek() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[0]
}

// askPriceHeap keeps ask prices with the lowest on top.
type askPriceHeap []float64

func (h askPriceHeap) Len() int           { return len(h) }
func (h askPriceHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h askPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *askPriceHeap) Push(x interface{}) {
	*h = append(*h, x.(float64))
}

func (h *askPriceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func (h askPriceHeap) Peek() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[0]
}
