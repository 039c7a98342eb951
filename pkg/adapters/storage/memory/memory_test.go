package memory

import (
	"context"
	"testing"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := &domain.ExecutionRecord{
		WorkflowID: "wf-1",
		History: []domain.HistoryEntry{
			{ID: "e1", NodeID: "a1", Success: true, TransactionHash: "0xabc"},
		},
	}
	require.NoError(t, store.SaveRecord(ctx, record))

	loaded, err := store.LoadRecord(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, record.WorkflowID, loaded.WorkflowID)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "0xabc", loaded.History[0].TransactionHash)
}

func TestStoreSaveRejectsEmptyID(t *testing.T) {
	store := NewStore()

	require.Error(t, store.SaveRecord(context.Background(), nil))
	require.Error(t, store.SaveRecord(context.Background(), &domain.ExecutionRecord{}))
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore()

	_, err := store.LoadRecord(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStoreCopiesAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := &domain.ExecutionRecord{
		WorkflowID: "wf-1",
		History:    []domain.HistoryEntry{{ID: "e1"}},
	}
	require.NoError(t, store.SaveRecord(ctx, record))

	// Mutating the saved value or a loaded copy must not leak into the
	// store.
	record.History[0].ID = "mutated"

	loaded, err := store.LoadRecord(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "e1", loaded.History[0].ID)

	loaded.History[0].ID = "mutated-again"
	reloaded, err := store.LoadRecord(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "e1", reloaded.History[0].ID)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, &domain.ExecutionRecord{WorkflowID: "wf-1"}))
	require.NoError(t, store.DeleteRecord(ctx, "wf-1"))

	_, err := store.LoadRecord(ctx, "wf-1")
	require.Error(t, err)

	// Deleting a missing record is not an error.
	require.NoError(t, store.DeleteRecord(ctx, "wf-1"))
}

func TestStoreListRecords(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, store.SaveRecord(ctx, &domain.ExecutionRecord{WorkflowID: "wf-1"}))
	require.NoError(t, store.SaveRecord(ctx, &domain.ExecutionRecord{WorkflowID: "wf-2"}))

	records, err = store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
