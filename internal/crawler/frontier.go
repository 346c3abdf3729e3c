// Package crawler drives date-bounded crawls of a single site: it discovers
// listing pages, walks their pagination and hands new articles to a store.
package crawler

// Frontier is the ordered queue of listing pages awaiting a visit. Seeds are
// appended at the back; pagination continuations go to the front so a
// listing is exhausted before the next seed starts.
//
// Frontier does not deduplicate and is not safe for concurrent use.
type Frontier struct {
	items []string
}

// NewFrontier creates a frontier holding urls in order.
func NewFrontier(urls ...string) *Frontier {
	f := &Frontier{items: make([]string, 0, len(urls))}
	for _, u := range urls {
		f.PushBack(u)
	}
	return f
}

// PushBack appends url to the end of the queue.
func (f *Frontier) PushBack(url string) {
	f.items = append(f.items, url)
}

// PushFront inserts url at the head of the queue.
func (f *Frontier) PushFront(url string) {
	f.items = append(f.items, "")
	copy(f.items[1:], f.items)
	f.items[0] = url
}

// PopFront removes and returns the head of the queue.
func (f *Frontier) PopFront() (string, bool) {
	if len(f.items) == 0 {
		return "", false
	}
	url := f.items[0]
	f.items[0] = ""
	f.items = f.items[1:]
	return url, true
}

// IsEmpty reports whether the queue is empty.
func (f *Frontier) IsEmpty() bool {
	return len(f.items) == 0
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.items)
}
