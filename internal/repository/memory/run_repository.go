package memory

import (
	"time"

	"cskg-agent-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// RunRepository keeps async runs for a limited time. Completed answers are
// durable in the report table; this only serves polling.
type RunRepository struct {
	cache *cache.Cache
}

func NewRunRepository(ttl time.Duration) *RunRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Save stores a copy of run so later mutation by the caller is not visible.
func (r *RunRepository) Save(run *store.Run) {
	cp := *run
	r.cache.Set(run.ID, &cp, cache.DefaultExpiration)
}

func (r *RunRepository) Get(id string) (*store.Run, bool) {
	if x, found := r.cache.Get(id); found {
		cp := *x.(*store.Run)
		return &cp, true
	}
	return nil, false
}

func (r *RunRepository) Delete(id string) {
	r.cache.Delete(id)
}

func (r *RunRepository) Len() int {
	return r.cache.ItemCount()
}
