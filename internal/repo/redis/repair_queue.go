package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

const repairQueueKey = "matches:repair"

// RepairQueue holds one-sided matches waiting for the second write. It is a
// sorted set scored by enqueue time, so re-enqueueing a pair is idempotent.
type RepairQueue struct {
	client *goredis.Client
	now    func() time.Time
}

func NewRepairQueue(client *goredis.Client) *RepairQueue {
	return &RepairQueue{
		client: client,
		now:    time.Now,
	}
}

func (q *RepairQueue) Enqueue(ctx context.Context, pair model.MatchPair) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if pair.ProfileID == "" || pair.CounterpartID == "" {
		return fmt.Errorf("invalid repair pair")
	}

	err := q.client.ZAddNX(ctx, repairQueueKey, goredis.Z{
		Score:  float64(q.now().UTC().UnixMilli()),
		Member: encodePair(pair),
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue match repair: %w", err)
	}
	return nil
}

// Peek returns up to limit of the oldest pairs without removing them.
func (q *RepairQueue) Peek(ctx context.Context, limit int) ([]model.MatchPair, error) {
	if q.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	members, err := q.client.ZRange(ctx, repairQueueKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read match repair queue: %w", err)
	}

	out := make([]model.MatchPair, 0, len(members))
	for _, member := range members {
		pair, ok := decodePair(member)
		if !ok {
			_ = q.client.ZRem(ctx, repairQueueKey, member).Err()
			continue
		}
		out = append(out, pair)
	}
	return out, nil
}

func (q *RepairQueue) Ack(ctx context.Context, pair model.MatchPair) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := q.client.ZRem(ctx, repairQueueKey, encodePair(pair)).Err(); err != nil {
		return fmt.Errorf("ack match repair: %w", err)
	}
	return nil
}

// Defer moves a still-queued pair behind everything enqueued so far, so a
// pair that keeps failing cannot starve newer ones. Acked pairs stay gone.
func (q *RepairQueue) Defer(ctx context.Context, pair model.MatchPair) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	err := q.client.ZAddXX(ctx, repairQueueKey, goredis.Z{
		Score:  float64(q.now().UTC().UnixMilli()),
		Member: encodePair(pair),
	}).Err()
	if err != nil {
		return fmt.Errorf("defer match repair: %w", err)
	}
	return nil
}

func (q *RepairQueue) Len(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := q.client.ZCard(ctx, repairQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count match repair queue: %w", err)
	}
	return n, nil
}

func encodePair(pair model.MatchPair) string {
	return pair.ProfileID + "\n" + pair.CounterpartID
}

func decodePair(member string) (model.MatchPair, bool) {
	profileID, counterpartID, ok := strings.Cut(member, "\n")
	if !ok || profileID == "" || counterpartID == "" {
		return model.MatchPair{}, false
	}
	return model.MatchPair{ProfileID: profileID, CounterpartID: counterpartID}, true
}
