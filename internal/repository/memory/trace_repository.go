package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultTraceCap bounds how many librarian run traces are kept per story.
const DefaultTraceCap = 50

// RunTrace is one librarian run record, kept in memory for debugging.
type RunTrace struct {
	StoryID    string
	BranchID   string
	FragmentID string
	Outcome    string // "analyzed", "skipped", "error", "summarized"
	Detail     string
	Duration   time.Duration
	At         time.Time
}

// TraceRepository is a bounded per-story ring of librarian run traces.
// Once a story exceeds the cap, the oldest entry is evicted. Stories idle
// for a day are dropped wholesale.
type TraceRepository struct {
	mu    sync.Mutex
	cap   int
	cache *cache.Cache
}

func NewTraceRepository(capacity int) *TraceRepository {
	if capacity <= 0 {
		capacity = DefaultTraceCap
	}
	return &TraceRepository{
		cap:   capacity,
		cache: cache.New(24*time.Hour, 1*time.Hour),
	}
}

func (r *TraceRepository) Record(trace RunTrace) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ring []RunTrace
	if x, found := r.cache.Get(trace.StoryID); found {
		ring = x.([]RunTrace)
	}
	ring = append(ring, trace)
	if len(ring) > r.cap {
		ring = ring[len(ring)-r.cap:]
	}
	r.cache.Set(trace.StoryID, ring, cache.DefaultExpiration)
}

func (r *TraceRepository) List(storyID string) []RunTrace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(storyID); found {
		ring := x.([]RunTrace)
		out := make([]RunTrace, len(ring))
		copy(out, ring)
		return out
	}
	return nil
}
