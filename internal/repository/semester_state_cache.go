package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/sgpa-planner/internal/config"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// SemesterStateCache keeps the live semester sheets in Redis. PostgreSQL is
// written asynchronously by the persist worker from the queue fed here.
type SemesterStateCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSemesterStateCache creates a new SemesterStateCache.
func NewSemesterStateCache(rdb *redis.Client, ttl time.Duration) *SemesterStateCache {
	return &SemesterStateCache{rdb: rdb, ttl: ttl}
}

// Load returns the cached rows of a semester. found is false on a cache miss.
func (c *SemesterStateCache) Load(ctx context.Context, studentID, number int) (semester.Rows, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.SemesterRowsKey(studentID, number)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get semester rows: %w", err)
	}

	var rows semester.Rows
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("decode semester rows: %w", err)
	}
	return rows, true, nil
}

// Save stores the rows and records the semester number in the student's index.
func (c *SemesterStateCache) Save(ctx context.Context, studentID, number int, rows semester.Rows) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode semester rows: %w", err)
	}

	indexKey := config.CacheKey.SemesterIndexKey(studentID)
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SemesterRowsKey(studentID, number), raw, c.ttl)
	pipe.SAdd(ctx, indexKey, number)
	pipe.Expire(ctx, indexKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save semester rows: %w", err)
	}
	return nil
}

// Numbers lists the semester numbers cached for a student.
func (c *SemesterStateCache) Numbers(ctx context.Context, studentID int) ([]int, error) {
	members, err := c.rdb.SMembers(ctx, config.CacheKey.SemesterIndexKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list cached semesters: %w", err)
	}

	numbers := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// EnqueuePersist pushes a persist job for the worker.
func (c *SemesterStateCache) EnqueuePersist(ctx context.Context, job model.SemesterPersistJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode persist job: %w", err)
	}
	return c.rdb.RPush(ctx, config.WorkerKey.PersistSemestersQueue, raw).Err()
}

// PopPersist takes the next persist job from the head of the queue, waiting
// up to timeout. A non-positive timeout does not block. ok is false when the
// queue is empty.
func (c *SemesterStateCache) PopPersist(ctx context.Context, timeout time.Duration) (raw string, ok bool, err error) {
	queue := config.WorkerKey.PersistSemestersQueue
	if timeout <= 0 {
		raw, err = c.rdb.LPop(ctx, queue).Result()
	} else {
		var result []string
		result, err = c.rdb.BLPop(ctx, timeout, queue).Result()
		if err == nil && len(result) == 2 {
			raw = result[1]
		}
	}
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pop persist job: %w", err)
	}
	return raw, raw != "", nil
}

// RequeuePersist puts a failed job back at the head of the queue so it is
// retried before any newer snapshot of the same semester.
func (c *SemesterStateCache) RequeuePersist(ctx context.Context, raw string) error {
	return c.rdb.LPush(ctx, config.WorkerKey.PersistSemestersQueue, raw).Err()
}

// Publish broadcasts a semester change on the student's planner channel.
func (c *SemesterStateCache) Publish(ctx context.Context, studentID int, event model.PlannerEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode planner event: %w", err)
	}
	return c.rdb.Publish(ctx, config.CacheKey.PlannerChannel(studentID), raw).Err()
}

// PlannerSubscription is an open subscription to a planner channel.
// *redis.PubSub satisfies it.
type PlannerSubscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Subscribe opens a subscription to the student's planner channel and waits
// until Redis confirms it, so every event published after Subscribe returns
// is delivered. The caller must close it.
func (c *SemesterStateCache) Subscribe(ctx context.Context, studentID int) (PlannerSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, config.CacheKey.PlannerChannel(studentID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe planner channel: %w", err)
	}
	return pubsub, nil
}
