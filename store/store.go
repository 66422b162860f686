package store

import (
	"context"
	"time"

	"github.com/hrygo/contextsense/ai/cache"
	"github.com/hrygo/contextsense/internal/profile"
)

const (
	contactCacheSize = 1000
	contactCacheTTL  = 5 * time.Minute
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	contactCache *cache.LRUCache[string, *Contact]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:       driver,
		profile:      profile,
		contactCache: cache.NewLRUCache[string, *Contact](contactCacheSize, contactCacheTTL),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the driver schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.contactCache.Clear()
	return s.driver.Close()
}
