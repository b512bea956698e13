package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const queueKey = "journal:analysis:queue"

// AnalysisJob asks for a saved entry to be analyzed in the background.
type AnalysisJob struct {
	EntryID   string    `json:"entry_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type JobQueue interface {
	Enqueue(ctx context.Context, job AnalysisJob) error
	DequeueBatch(ctx context.Context, batchSize int) ([]AnalysisJob, error)
}

// Queue is a redis list: producers LPUSH, workers RPOP.
type Queue struct {
	client *redis.Client
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Enqueue(ctx context.Context, job AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, queueKey, payload).Err()
}

// DequeueBatch skips payloads that fail to decode.
func (q *Queue) DequeueBatch(ctx context.Context, batchSize int) ([]AnalysisJob, error) {
	var jobs []AnalysisJob
	for i := 0; i < batchSize; i++ {
		item, err := q.client.RPop(ctx, queueKey).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return jobs, err
		}
		var job AnalysisJob
		if err := json.Unmarshal(item, &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// LocalQueue is the in-process queue used when REDIS_URL is unset.
type LocalQueue struct {
	mu   sync.Mutex
	jobs []AnalysisJob
}

func NewLocalQueue() *LocalQueue {
	return &LocalQueue{}
}

func (q *LocalQueue) Enqueue(_ context.Context, job AnalysisJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *LocalQueue) DequeueBatch(_ context.Context, batchSize int) ([]AnalysisJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := min(batchSize, len(q.jobs))
	batch := make([]AnalysisJob, n)
	copy(batch, q.jobs[:n])
	q.jobs = q.jobs[n:]
	return batch, nil
}

// Enqueuer adapts a JobQueue to the journal service.
type Enqueuer struct {
	Queue JobQueue
	Now   func() time.Time
}

func (e Enqueuer) EnqueueAnalysis(ctx context.Context, entryID, text string) error {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return e.Queue.Enqueue(ctx, AnalysisJob{EntryID: entryID, Text: text, CreatedAt: now().UTC()})
}
