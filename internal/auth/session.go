package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "tamilbot:session:"

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// SetSession records that sessionID is online with token for duration.
// Only the token is stored, never conversation turns.
func SetSession(ctx context.Context, rdb *redis.Client, sessionID, token string, duration time.Duration) error {
	return rdb.Set(ctx, sessionKey(sessionID), token, duration).Err()
}

func GetSession(ctx context.Context, rdb *redis.Client, sessionID string) (string, error) {
	return rdb.Get(ctx, sessionKey(sessionID)).Result()
}

func DeleteSession(ctx context.Context, rdb *redis.Client, sessionID string) error {
	return rdb.Del(ctx, sessionKey(sessionID)).Err()
}

// OnlineSessionCount returns the number of sessions with a live presence key.
// Several server processes sharing one redis all count.
func OnlineSessionCount(ctx context.Context, rdb *redis.Client) (int, error) {
	var cursor uint64
	ids := make(map[string]struct{})
	for {
		keys, next, err := rdb.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			if id := strings.TrimPrefix(key, sessionKeyPrefix); id != "" && id != key {
				ids[id] = struct{}{}
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return len(ids), nil
}
