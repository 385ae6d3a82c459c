package services

import "sync/atomic"

// SearchQuota is the process-wide budget of external web-search calls. It
// starts at max, is decremented once per successful call, and is never
// replenished for the lifetime of the process.
type SearchQuota struct {
	max       int64
	remaining atomic.Int64
}

func NewSearchQuota(max int) *SearchQuota {
	q := &SearchQuota{max: int64(max)}
	q.remaining.Store(int64(max))
	return q
}

func (q *SearchQuota) Max() int { return int(q.max) }

func (q *SearchQuota) Remaining() int {
	r := q.remaining.Load()
	if r < 0 {
		return 0
	}
	return int(r)
}

// DecrementIfAvailable atomically consumes one unit of quota. It returns
// false, without changing the counter, once the budget is exhausted.
func (q *SearchQuota) DecrementIfAvailable() bool {
	for {
		r := q.remaining.Load()
		if r <= 0 {
			return false
		}
		if q.remaining.CompareAndSwap(r, r-1) {
			return true
		}
	}
}

func (q *SearchQuota) Used() int { return q.Max() - q.Remaining() }
