package crawler

// TraversalOrder selects which discovered URL the Frontier yields next.
type TraversalOrder int

const (
	// DepthFirst yields the most recently discovered URL first (LIFO).
	// This is the crawl order used by default.
	DepthFirst TraversalOrder = iota

	// BreadthFirst yields the earliest discovered URL first (FIFO).
	BreadthFirst
)

// String returns the policy name.
func (o TraversalOrder) String() string {
	switch o {
	case DepthFirst:
		return "depth-first"
	case BreadthFirst:
		return "breadth-first"
	default:
		return "unknown"
	}
}

// Frontier is the crawl worklist together with the set of every URL ever
// discovered. A URL enters the seen set when it is pushed and never leaves
// it, so each URL is yielded at most once.
//
// Frontier is not safe for concurrent use; the Spider owns it exclusively.
type Frontier struct {
	order   TraversalOrder
	pending []string
	seen    map[string]struct{}
}

// NewFrontier creates a Frontier holding only the seed URL.
func NewFrontier(seed string, order TraversalOrder) *Frontier {
	f := &Frontier{
		order:   order,
		pending: make([]string, 0, 16),
		seen:    make(map[string]struct{}),
	}
	f.Push(seed)
	return f
}

// Push records u as seen and schedules it. It returns false, and does
// nothing, when u was already seen.
func (f *Frontier) Push(u string) bool {
	if _, ok := f.seen[u]; ok {
		return false
	}
	f.seen[u] = struct{}{}
	f.pending = append(f.pending, u)
	return true
}

// Pop removes and returns the next URL to visit.
func (f *Frontier) Pop() (string, bool) {
	if len(f.pending) == 0 {
		return "", false
	}

	var u string
	switch f.order {
	case BreadthFirst:
		u = f.pending[0]
		f.pending[0] = ""
		f.pending = f.pending[1:]
	default:
		last := len(f.pending) - 1
		u = f.pending[last]
		f.pending[last] = ""
		f.pending = f.pending[:last]
	}
	return u, true
}

// Len returns the number of URLs still waiting to be visited.
func (f *Frontier) Len() int {
	return len(f.pending)
}

// SeenCount returns the number of distinct URLs discovered so far.
func (f *Frontier) SeenCount() int {
	return len(f.seen)
}
