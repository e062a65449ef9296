package scanner

import (
	"container/heap"
	"sort"
)

// fileHeap is a min-heap ordered so that the entry to evict comes first:
// the smallest file, and among equal sizes the greatest path.
type fileHeap []FileEntry

func (h fileHeap) Len() int { return len(h) }

func (h fileHeap) Less(i, j int) bool {
	if h[i].SizeBytes != h[j].SizeBytes {
		return h[i].SizeBytes < h[j].SizeBytes
	}
	return h[i].Path > h[j].Path
}

func (h fileHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *fileHeap) Push(x any) { *h = append(*h, x.(FileEntry)) }

func (h *fileHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// topFiles keeps the n largest files seen so far in O(log n) per file
type topFiles struct {
	limit int
	h     fileHeap
}

func newTopFiles(limit int) *topFiles {
	return &topFiles{limit: limit, h: make(fileHeap, 0, max(limit, 0))}
}

func (t *topFiles) Offer(e FileEntry) {
	if t.limit <= 0 {
		return
	}
	if len(t.h) < t.limit {
		heap.Push(&t.h, e)
		return
	}
	low := t.h[0]
	if e.SizeBytes > low.SizeBytes || (e.SizeBytes == low.SizeBytes && e.Path < low.Path) {
		t.h[0] = e
		heap.Fix(&t.h, 0)
	}
}

// Sorted returns the kept files by size descending, ties by path ascending
func (t *topFiles) Sorted() []FileEntry {
	out := make([]FileEntry, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SizeBytes != out[j].SizeBytes {
			return out[i].SizeBytes > out[j].SizeBytes
		}
		return out[i].Path < out[j].Path
	})
	return out
}
