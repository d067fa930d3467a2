package wardrobe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/models"
)

// LookFeed keeps each user's curated looks in a capped Redis list, newest first.
type LookFeed struct {
	rdb   redis.Cmdable
	appID string
	size  int64
	ttl   time.Duration
}

func NewLookFeed(rdb redis.Cmdable, appID string, size int, ttl time.Duration) *LookFeed {
	if size <= 0 {
		size = 20
	}
	return &LookFeed{rdb: rdb, appID: appID, size: int64(size), ttl: ttl}
}

func (f *LookFeed) key(userID string) string {
	return fmt.Sprintf("muse:%s:looks:%s", f.appID, userID)
}

func (f *LookFeed) PushLook(ctx context.Context, userID string, look models.LookFeedEntry) error {
	raw, err := json.Marshal(look)
	if err != nil {
		return errors.NewStoreFailedError("push_look", err)
	}

	key := f.key(userID)
	_, err = f.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, f.size-1)
		if f.ttl > 0 {
			pipe.Expire(ctx, key, f.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.NewStoreFailedError("push_look", err)
	}
	return nil
}

// ListLooks returns the feed newest first. Entries that fail to decode are skipped.
func (f *LookFeed) ListLooks(ctx context.Context, userID string) ([]models.LookFeedEntry, error) {
	vals, err := f.rdb.LRange(ctx, f.key(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.NewStoreFailedError("list_looks", err)
	}

	looks := make([]models.LookFeedEntry, 0, len(vals))
	for _, v := range vals {
		var look models.LookFeedEntry
		if err := json.Unmarshal([]byte(v), &look); err != nil {
			continue
		}
		looks = append(looks, look)
	}
	return looks, nil
}

func (f *LookFeed) ClearLooks(ctx context.Context, userID string) error {
	if err := f.rdb.Del(ctx, f.key(userID)).Err(); err != nil {
		return errors.NewStoreFailedError("clear_looks", err)
	}
	return nil
}
