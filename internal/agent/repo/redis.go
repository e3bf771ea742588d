package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	errx "github.com/SalvadorCordova96/ProJect-Medical/internal/core/error"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// RedisCheckpointRepository persists one state snapshot per thread. The TTL
// is refreshed on every save so active conversations stay warm; retention
// beyond the TTL is an external policy, not enforced here.
type RedisCheckpointRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCheckpointRepository(rdb redis.Cmdable, ttl time.Duration) *RedisCheckpointRepository {
	return &RedisCheckpointRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisCheckpointRepository) checkpointKey(threadID string) string {
	return fmt.Sprintf("agent:thread:%s:state", threadID)
}

func (r *RedisCheckpointRepository) Load(ctx context.Context, threadID string) (*model.AgentState, error) {
	key := r.checkpointKey(threadID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load checkpoint from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.AgentState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to unmarshal checkpoint")
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &state, nil
}

func (r *RedisCheckpointRepository) Save(ctx context.Context, threadID string, state *model.AgentState) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal checkpoint")
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	key := r.checkpointKey(threadID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save checkpoint to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.CheckpointRepository = (*RedisCheckpointRepository)(nil)
