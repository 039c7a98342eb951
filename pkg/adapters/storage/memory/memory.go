package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aptosflow/aptosflow/pkg/domain"
)

// Store implements ports.HistoryStore with an in-memory map.
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.ExecutionRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[string]*domain.ExecutionRecord)}
}

// SaveRecord stores a copy of the record.
func (s *Store) SaveRecord(ctx context.Context, record *domain.ExecutionRecord) error {
	if record == nil || record.WorkflowID == "" {
		return fmt.Errorf("record with workflow id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.WorkflowID] = copyRecord(record)
	return nil
}

// LoadRecord retrieves a copy of the record for a workflow.
func (s *Store) LoadRecord(ctx context.Context, workflowID string) (*domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[workflowID]
	if !ok {
		return nil, fmt.Errorf("record not found: %s", workflowID)
	}
	return copyRecord(record), nil
}

// DeleteRecord removes the record for a workflow.
func (s *Store) DeleteRecord(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, workflowID)
	return nil
}

// ListRecords returns copies of all stored records.
func (s *Store) ListRecords(ctx context.Context) ([]*domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.ExecutionRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, copyRecord(record))
	}
	return records, nil
}

func copyRecord(record *domain.ExecutionRecord) *domain.ExecutionRecord {
	history := make([]domain.HistoryEntry, len(record.History))
	copy(history, record.History)
	return &domain.ExecutionRecord{
		WorkflowID:  record.WorkflowID,
		IsExecuting: record.IsExecuting,
		History:     history,
	}
}
