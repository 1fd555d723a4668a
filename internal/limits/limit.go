package limits

import (
	"fmt"
	"sync"

	"github.com/INLOpen/mergetree/core"
)

type resourceExhausted struct {
	requested int64
	used      int64
	limit     int64
}

func (re *resourceExhausted) Error() string {
	return fmt.Sprintf("%s: would use %d bytes (requested %d, in use %d), maximum: %d",
		core.ErrMemoryLimitExceeded, re.used+re.requested, re.requested, re.used, re.limit)
}

func (re *resourceExhausted) Unwrap() error {
	return core.ErrMemoryLimitExceeded
}

// Quota is a byte budget shared by everything that charges it. A zero limit
// means unlimited. It is safe for concurrent use.
type Quota struct {
	mu    sync.Mutex
	limit int64
	used  int64
	peak  int64
}

func NewQuota(n int64) *Quota {
	return &Quota{limit: n}
}

func UnlimitedQuota() *Quota {
	return NewQuota(0)
}

// Reserve charges n bytes. It fails without charging anything when the
// total would go over the limit.
func (q *Quota) Reserve(n int64) error {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit > 0 && q.used+n > q.limit {
		return &resourceExhausted{requested: n, used: q.used, limit: q.limit}
	}
	q.used += n
	if q.used > q.peak {
		q.peak = q.used
	}
	return nil
}

// Release returns n previously reserved bytes.
func (q *Quota) Release(n int64) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used -= n
	if q.used < 0 {
		q.used = 0
	}
}

func (q *Quota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}

func (q *Quota) Peak() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}

func (q *Quota) Limit() int64 {
	return q.limit
}
