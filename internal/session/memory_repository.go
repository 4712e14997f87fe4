package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type MemoryRepository struct {
	cache *cache.Cache
}

// NewMemoryRepository creates an in-process session store whose entries
// expire after lifetime, purging expired items every 10 minutes.
func NewMemoryRepository(lifetime time.Duration) *MemoryRepository {
	c := cache.New(lifetime, 10*time.Minute)
	return &MemoryRepository{
		cache: c,
	}
}

func (r *MemoryRepository) Save(_ context.Context, session *Session) error {
	r.cache.Set(session.Token, session, cache.DefaultExpiration)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, token string) (*Session, bool) {
	if x, found := r.cache.Get(token); found {
		return x.(*Session), true
	}
	return nil, false
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.cache.Delete(token)
	return nil
}
