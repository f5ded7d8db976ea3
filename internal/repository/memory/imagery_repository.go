package memory

import (
	"time"

	"propintel-console/internal/dto"

	"github.com/patrickmn/go-cache"
)

// ImageryRepository holds discovery results per rounded location for the life of the process.
type ImageryRepository struct {
	cache *cache.Cache
}

// NewImageryRepository keeps entries for ttl; zero keeps them until the process exits.
func NewImageryRepository(ttl time.Duration) *ImageryRepository {
	if ttl <= 0 {
		return &ImageryRepository{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &ImageryRepository{cache: cache.New(ttl, ttl*2)}
}

func (r *ImageryRepository) Save(key string, discovery *dto.DiscoveryResponse) {
	r.cache.Set(key, discovery, cache.DefaultExpiration)
}

func (r *ImageryRepository) Get(key string) (*dto.DiscoveryResponse, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*dto.DiscoveryResponse), true
	}
	return nil, false
}

func (r *ImageryRepository) Flush() {
	r.cache.Flush()
}
