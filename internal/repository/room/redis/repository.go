package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	logger         *slog.Logger
	keyTTL         time.Duration
	maxScoreScript string
}

func NewRepo(rc *redis.Client, keyTTL time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
		keyTTL: keyTTL,
		// memberlist scores only need to preserve join order
		maxScoreScript: rc.ScriptLoad(context.Background(), `
			local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local nextScore = 1
			if #maxScore > 0 then
				nextScore = tonumber(maxScore[2]) + 1
			end
			redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
			return nextScore
		`).Val(),
	}
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}

	for _, cmd := range cmds {
		if cmd.Err() != nil {
			return fmt.Errorf("pipe command %s failed: %w", cmd.Name(), cmd.Err())
		}
	}

	return nil
}

func (r repo) addWithIncrement(ctx context.Context, pipe redis.Pipeliner, key, value string) {
	pipe.EvalSha(ctx, r.maxScoreScript, []string{key}, value)
}
