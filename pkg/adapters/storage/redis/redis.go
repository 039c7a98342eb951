package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store implements ports.HistoryStore on Redis with JSON serialization and
// a TTL per record.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStore creates a Redis-backed history store.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveRecord persists the record under its workflow id.
func (s *Store) SaveRecord(ctx context.Context, record *domain.ExecutionRecord) error {
	if record == nil || record.WorkflowID == "" {
		return fmt.Errorf("record with workflow id is required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := recordKey(record.WorkflowID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Debug("execution record saved",
		zap.String("workflow_id", record.WorkflowID),
		zap.Int("history_len", len(record.History)))

	return nil
}

// LoadRecord retrieves the record for a workflow.
func (s *Store) LoadRecord(ctx context.Context, workflowID string) (*domain.ExecutionRecord, error) {
	data, err := s.client.Get(ctx, recordKey(workflowID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("record not found: %s", workflowID)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record domain.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

// DeleteRecord removes the record for a workflow.
func (s *Store) DeleteRecord(ctx context.Context, workflowID string) error {
	if err := s.client.Del(ctx, recordKey(workflowID)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// ListRecords returns all stored execution records.
func (s *Store) ListRecords(ctx context.Context) ([]*domain.ExecutionRecord, error) {
	pattern := "aptosflow:record:*"

	var cursor uint64
	var keys []string
	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)
		if cursor == 0 {
			break
		}
	}

	records := make([]*domain.ExecutionRecord, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var record domain.ExecutionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

func recordKey(workflowID string) string {
	return fmt.Sprintf("aptosflow:record:%s", workflowID)
}
