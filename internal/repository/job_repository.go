package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KseniyaZaitseva1/bloggpt/internal/model"

	"github.com/redis/go-redis/v9"
)

var ErrJobNotFound = errors.New("job not found")

const jobKeyPrefix = "bloggpt:job:"

type RedisJobRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobRepository(client *redis.Client, ttl time.Duration) *RedisJobRepository {
	return &RedisJobRepository{client: client, ttl: ttl}
}

func (r *RedisJobRepository) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return r.client.Set(ctx, jobKeyPrefix+job.ID, data, r.ttl).Err()
}

func (r *RedisJobRepository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := r.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

type memoryJob struct {
	job       model.Job
	expiresAt time.Time
}

// MemoryJobRepository keeps jobs for a single process. Expired jobs are
// dropped on the next write.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[string]memoryJob
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryJobRepository(ttl time.Duration) *MemoryJobRepository {
	return &MemoryJobRepository{
		jobs: make(map[string]memoryJob),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (r *MemoryJobRepository) SaveJob(ctx context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, entry := range r.jobs {
		if r.expired(entry, now) {
			delete(r.jobs, id)
		}
	}

	r.jobs[job.ID] = memoryJob{job: copyJob(job), expiresAt: now.Add(r.ttl)}
	return nil
}

func (r *MemoryJobRepository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[id]
	if !ok || r.expired(entry, r.now()) {
		return nil, ErrJobNotFound
	}
	job := copyJob(&entry.job)
	return &job, nil
}

func (r *MemoryJobRepository) expired(entry memoryJob, now time.Time) bool {
	return r.ttl > 0 && now.After(entry.expiresAt)
}

func copyJob(job *model.Job) model.Job {
	c := *job
	if job.Post != nil {
		post := *job.Post
		c.Post = &post
	}
	return c
}
