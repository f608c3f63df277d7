package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceRingEvictsOldest(t *testing.T) {
	repo := NewTraceRepository(3)

	for i := 1; i <= 5; i++ {
		repo.Record(RunTrace{StoryID: "s1", FragmentID: fmt.Sprintf("pr-%d", i), Outcome: "analyzed"})
	}

	traces := repo.List("s1")
	assert.Len(t, traces, 3)
	assert.Equal(t, "pr-3", traces[0].FragmentID)
	assert.Equal(t, "pr-5", traces[2].FragmentID)
}

func TestTraceStoriesAreIsolated(t *testing.T) {
	repo := NewTraceRepository(0) // falls back to DefaultTraceCap

	repo.Record(RunTrace{StoryID: "s1", Outcome: "summarized"})
	repo.Record(RunTrace{StoryID: "s2", Outcome: "error"})

	assert.Len(t, repo.List("s1"), 1)
	assert.Len(t, repo.List("s2"), 1)
	assert.Nil(t, repo.List("s3"))
}

func TestMigrationMarkers(t *testing.T) {
	repo := NewMigrationMarkerRepository()

	assert.False(t, repo.IsMigrated("s1"))
	repo.MarkMigrated("s1")
	assert.True(t, repo.IsMigrated("s1"))
	assert.False(t, repo.IsMigrated("s2"))
}
