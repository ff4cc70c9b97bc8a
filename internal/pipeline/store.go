package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boothworks/pipeline/internal/model"
)

const jobRecordTTL = 24 * time.Hour

// RecordStore persists completed JobResults for later lookup, the way the
// reference backend persists its Job records to Redis under a job:{id} key.
type RecordStore struct {
	redis *redis.Client
}

func NewRecordStore(client *redis.Client) *RecordStore {
	return &RecordStore{redis: client}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// Save persists result under its own jobId with a 24h TTL. Failures are
// logged by the caller but never change the synchronous response that was
// already computed — this store is a read-side convenience, not part of
// the request's correctness.
func (s *RecordStore) Save(ctx context.Context, result *model.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("pipeline: failed to marshal job record: %w", err)
	}
	return s.redis.Set(ctx, jobKey(result.JobID), data, jobRecordTTL).Err()
}

// Get returns the stored JobResult for jobID, or (nil, nil) if absent or
// expired.
func (s *RecordStore) Get(ctx context.Context, jobID string) (*model.JobResult, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to read job record: %w", err)
	}

	var result model.JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("pipeline: failed to unmarshal job record: %w", err)
	}
	return &result, nil
}
