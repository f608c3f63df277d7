package memory

import (
	"github.com/patrickmn/go-cache"
)

// MigrationMarkerRepository remembers which stories have already had their
// on-disk layout migrated this process. Checking the marker before touching
// the filesystem keeps concurrent Migrate calls for the same story from
// racing on partially-moved content.
type MigrationMarkerRepository struct {
	cache *cache.Cache
}

func NewMigrationMarkerRepository() *MigrationMarkerRepository {
	// Markers never expire; migration happens at most once per story.
	return &MigrationMarkerRepository{
		cache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (r *MigrationMarkerRepository) IsMigrated(storyID string) bool {
	_, found := r.cache.Get(storyID)
	return found
}

func (r *MigrationMarkerRepository) MarkMigrated(storyID string) {
	r.cache.Set(storyID, true, cache.NoExpiration)
}
