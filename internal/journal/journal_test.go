package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_AppendAndList(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(ctx, Attempt{
		Stage:     "deployContracts",
		Outcome:   OutcomeSuccess,
		Duration:  90 * time.Second,
		CreatedAt: base,
	}))
	require.NoError(t, j.Append(ctx, Attempt{
		Stage:     "register",
		Outcome:   OutcomeFailure,
		Message:   "execution reverted",
		Duration:  3 * time.Second,
		CreatedAt: base.Add(time.Minute),
	}))

	attempts, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	assert.Equal(t, "deployContracts", attempts[0].Stage)
	assert.Equal(t, OutcomeSuccess, attempts[0].Outcome)
	assert.Equal(t, 90*time.Second, attempts[0].Duration)
	assert.Equal(t, base, attempts[0].CreatedAt)
	assert.NotEmpty(t, attempts[0].ID)

	assert.Equal(t, "register", attempts[1].Stage)
	assert.Equal(t, "execution reverted", attempts[1].Message)

	// The database lives under the project state directory.
	_, err = os.Stat(filepath.Join(dir, ".daoforge", "journal.db"))
	assert.NoError(t, err)
}

func TestJournal_EmptyList(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	attempts, err := j.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestJournal_FillsDefaults(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, Attempt{Stage: "register", Outcome: OutcomeSuccess}))

	attempts, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.NotEmpty(t, attempts[0].ID)
	assert.False(t, attempts[0].CreatedAt.IsZero())
}
