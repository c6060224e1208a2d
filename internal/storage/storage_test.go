package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/batch"
	"github.com/yourusername/community-manager/internal/membership"
)

func openTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "data", "ledger.db")))
	t.Cleanup(func() { _ = Close() })
}

func TestRunLifecycle(t *testing.T) {
	openTestDB(t)

	id, err := StartRun("cached", "comunidades.xlsx", "3")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	stats := batch.Stats{AddsSucceeded: 2, AddsFailed: 1, RemovesSucceeded: 1}
	require.NoError(t, FinishRun(id, stats, StatusCompleted))

	run, err = GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, stats, run.Stats)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, "3", run.Limit)
}

func TestFinishUnknownRun(t *testing.T) {
	openTestDB(t)
	assert.Error(t, FinishRun("missing", batch.Stats{}, StatusCompleted))
}

func TestLedgerRecordsOutcomes(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()

	id, err := StartRun("fresh", "in.csv", "all")
	require.NoError(t, err)
	ledger := RunLedger{RunID: id}

	require.NoError(t, ledger.Record(ctx, 0, membership.Outcome{
		Kind: membership.Add, Community: "Vecinos", Target: "3001112222", Result: membership.Success,
	}))
	require.NoError(t, ledger.Record(ctx, 0, membership.Outcome{
		Kind: membership.Remove, Community: "Vecinos", Target: "3004445555", Result: membership.Success,
	}))
	require.NoError(t, ledger.Record(ctx, 1, membership.Outcome{
		Kind: membership.Add, Community: "Fantasma", Target: "3001112222", Result: membership.Failure,
		FailingStep: membership.CommunityOpened, Err: errors.New("community not found"),
	}))

	stats, err := GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_runs"])
	assert.Equal(t, 1, stats["members_added"])
	assert.Equal(t, 1, stats["members_removed"])
	assert.Equal(t, 1, stats["failed_operations"])
	assert.Equal(t, 3, stats["operations_today"])

	var step, msg string
	require.NoError(t, db.QueryRow("SELECT failing_step, error FROM outcomes WHERE result = 'failure'").Scan(&step, &msg))
	assert.Equal(t, "CommunityOpened", step)
	assert.Equal(t, "community not found", msg)
}

func TestRecordOutcomeSurvivesCancelledContext(t *testing.T) {
	openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id, err := StartRun("cached", "in.csv", "all")
	require.NoError(t, err)

	out := membership.Outcome{
		Kind: membership.Add, Community: "Vecinos", Target: "3001112222", Result: membership.Failure,
		FailingStep: membership.NumberConfirmed, Err: errors.New("checkmark not found"),
	}
	require.NoError(t, RunLedger{RunID: id}.Record(ctx, 0, out))
	require.NoError(t, FinishRun(id, batch.Stats{AddsFailed: 1}, StatusInterrupted))

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM outcomes WHERE run_id = ?", id).Scan(&rows))
	run, err := GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, run.Stats.Total(), rows)
	assert.Equal(t, StatusInterrupted, run.Status)
}
