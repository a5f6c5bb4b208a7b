package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-board/internal/database"
	"meal-board/internal/shared"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db.SQL)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	usage := shared.TokenUsage{PromptTokens: 100, CompletionTokens: 20, Model: "llama"}
	require.NoError(t, store.RecordMeta(ctx, shared.AgentMeta{AgentName: "clipper", Usage: usage, Latency: time.Second}))
	require.NoError(t, store.RecordMeta(ctx, shared.AgentMeta{AgentName: "clipper", Usage: usage}))
	require.NoError(t, store.RecordMeta(ctx, shared.AgentMeta{AgentName: "clipper"}))
	require.NoError(t, store.Record(ctx, ExecutionMetric{
		AgentName: "clipper", Model: "llama", PromptTokens: 5, CompletionTokens: 1,
		Timestamp: now.AddDate(0, 0, -1),
	}))
	require.NoError(t, store.Record(ctx, ExecutionMetric{
		AgentName: "clipper", Model: "llama", PromptTokens: 999, CompletionTokens: 999,
		Timestamp: now.AddDate(0, 0, -40),
	}))

	t.Run("GetDailyUsage", func(t *testing.T) {
		usage, err := store.GetDailyUsage(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, []DailyUsage{
			{Date: "2024-06-10", TotalPrompt: 200, TotalCompletion: 40, TotalExecution: 2},
			{Date: "2024-06-09", TotalPrompt: 5, TotalCompletion: 1, TotalExecution: 1},
		}, usage)
	})

	t.Run("Cleanup", func(t *testing.T) {
		n, err := store.Cleanup(ctx, 30)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		usage, err := store.GetDailyUsage(ctx, 365)
		require.NoError(t, err)
		require.Len(t, usage, 2)
	})
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 2048), 0o644))

	h := GetSysHealth(dir)
	require.Equal(t, "2.0 KB", h.DataDiskSize)
	require.Positive(t, h.Goroutines)
}
