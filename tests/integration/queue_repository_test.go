//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/expdynts/expwatch/internal/queue"
	queuepostgres "github.com/expdynts/expwatch/internal/queue/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each test works on its own queue name so rows never collide across
// tests sharing the jobs table.

func newJob(t *testing.T, name queue.Name, id string) *queue.Job {
	t.Helper()
	job, err := queue.New(name, id, map[string]string{"case": "123/2024"})
	require.NoError(t, err)
	return job
}

func TestQueueRepository_IdempotentEnqueue(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-enqueue")

	accepted, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)
	assert.True(t, accepted)

	// Same dedup key while pending: no-op.
	accepted, err = repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)
	assert.False(t, accepted)

	stats, err := repo.Stats(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
}

func TestQueueRepository_EnqueueWhileActiveIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-enqueue-active")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	accepted, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestQueueRepository_CompletedAndFailedJobsReArm(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-rearm")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, repo.Complete(ctx, name, "sub-1"))

	// A completed row re-arms for a new run with a fresh attempt budget.
	accepted, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)
	assert.True(t, accepted)

	claimed, err = repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].Attempts)

	require.NoError(t, repo.MarkFailed(ctx, name, "sub-1", assert.AnError))

	// A failed row re-arms the same way.
	accepted, err = repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)
	assert.True(t, accepted)

	stats, err := repo.Stats(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 0, stats.Failed)
}

func TestQueueRepository_ClaimSetsDeadlineAndAttempts(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-claim")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, queue.StatusActive, claimed[0].Status)
	assert.Equal(t, 1, claimed[0].Attempts)
	require.NotNil(t, claimed[0].ClaimedUntil)
	assert.True(t, claimed[0].ClaimedUntil.After(time.Now()))

	// Within the visibility window the job is invisible to other claims.
	claimed, err = repo.Claim(ctx, name, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestQueueRepository_ExpiredClaimIsReclaimed(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-reclaim")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 1, 500*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	time.Sleep(700 * time.Millisecond)

	// The silent worker's deadline passed: the job is claimable again
	// and the attempt count keeps growing.
	claimed, err = repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 2, claimed[0].Attempts)
}

func TestQueueRepository_ExtendClaimDefersReclaim(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-extend")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 1, 500*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.ExtendClaim(ctx, name, "sub-1", time.Minute))
	time.Sleep(700 * time.Millisecond)

	// The original deadline passed, the extended one did not.
	claimed, err = repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	require.NoError(t, repo.Complete(ctx, name, "sub-1"))
	assert.ErrorIs(t, repo.ExtendClaim(ctx, name, "sub-1", time.Minute), queue.ErrJobNotFound)
}

func TestQueueRepository_RetryNotDueUntilDeadline(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-retry")

	_, err := repo.Enqueue(ctx, newJob(t, name, "sub-1"))
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.MarkForRetry(ctx, name, "sub-1", assert.AnError, time.Now().Add(time.Hour)))

	claimed, err = repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	// A past deadline makes the job due immediately, and the recorded
	// error survives the round trip.
	require.NoError(t, repo.MarkForRetry(ctx, name, "sub-1", assert.AnError, time.Now().Add(-time.Second)))

	claimed, err = repo.Claim(ctx, name, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, assert.AnError.Error(), claimed[0].LastError)
}

func TestQueueRepository_LifecycleOnMissingJob(t *testing.T) {
	ctx := context.Background()
	repo := queuepostgres.NewRepository(testDB)
	name := queue.Name("it-missing")

	assert.ErrorIs(t, repo.Complete(ctx, name, "ghost"), queue.ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, name, "ghost", assert.AnError), queue.ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkForRetry(ctx, name, "ghost", assert.AnError, time.Now()), queue.ErrJobNotFound)
}
