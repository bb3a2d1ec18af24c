package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-facefind/pkg/detect"
)

func TestJobLifecycle(t *testing.T) {
	s := NewStore()

	job := s.Create("upload")
	require.NotEmpty(t, job.ID)
	assert.Equal(t, StateQueued, job.State)
	assert.Equal(t, "upload", job.Source)

	require.True(t, s.MarkRunning(job.ID))
	got, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StateRunning, got.State)

	require.True(t, s.Complete(job.ID, detect.DetectionResult{Success: true}))
	got, ok = s.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, got.State)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestFailedResultMovesJobToFailed(t *testing.T) {
	s := NewStore()
	job := s.Create("stream")

	s.Complete(job.ID, detect.DetectionResult{Success: false, Error: "decode failed"})
	got, _ := s.Get(job.ID)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, "decode failed", got.Result.Error)
}

func TestUnknownJobID(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("nope")
	assert.False(t, ok)
	assert.False(t, s.MarkRunning("nope"))
	assert.False(t, s.Complete("nope", detect.DetectionResult{}))
}

func TestRecentNewestFirst(t *testing.T) {
	s := NewStore()
	first := s.Create("a")
	second := s.Create("b")
	third := s.Create("c")

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, third.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	all := s.Recent(0)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[2].ID)
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := NewStoreWithLimits(3, time.Hour)
	first := s.Create("a")
	s.Create("b")
	s.Create("c")
	s.Create("d")

	assert.Equal(t, 3, s.Len())
	_, ok := s.Get(first.ID)
	assert.False(t, ok, "oldest job should be evicted at capacity")
}

func TestTTLEviction(t *testing.T) {
	s := NewStoreWithLimits(10, time.Millisecond)
	job := s.Create("a")

	time.Sleep(5 * time.Millisecond)
	s.Create("b") // triggers prune

	_, ok := s.Get(job.ID)
	assert.False(t, ok, "expired job should be pruned")
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	job := s.Create("a")

	snap, _ := s.Get(job.ID)
	snap.State = StateFailed

	got, _ := s.Get(job.ID)
	assert.Equal(t, StateQueued, got.State, "mutating a snapshot must not affect the store")
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Create("a")
	s.Create("b")
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Recent(0))
}
