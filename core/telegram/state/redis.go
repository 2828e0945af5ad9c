package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "unimeet:sess"

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	// Prefix namespaces every key. Defaults to "unimeet:sess".
	Prefix string
	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration
}

type redisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a Store persisted in Redis so sessions survive restarts.
func NewRedisStore(rdb redis.UniversalClient, opts RedisOptions) Store {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisStore{rdb: rdb, prefix: prefix, ttl: opts.TTL}
}

func (r *redisStore) key(userID int64, part string) string {
	return fmt.Sprintf("%s:%d:%s", r.prefix, userID, part)
}

func (r *redisStore) keys(userID int64) []string {
	return []string{
		r.key(userID, "state"),
		r.key(userID, "draft"),
		r.key(userID, "admin"),
		r.key(userID, "last"),
	}
}

func (r *redisStore) touch(ctx context.Context, pipe redis.Pipeliner, key string) {
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
}

func (r *redisStore) State(ctx context.Context, userID int64) (State, error) {
	v, err := r.rdb.Get(ctx, r.key(userID, "state")).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("state: get state: %w", err)
	}
	return State(v), nil
}

func (r *redisStore) SetState(ctx context.Context, userID int64, st State) error {
	key := r.key(userID, "state")
	if st == StateIdle {
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("state: clear state: %w", err)
		}
		return nil
	}
	if err := r.rdb.Set(ctx, key, string(st), r.ttl).Err(); err != nil {
		return fmt.Errorf("state: set state: %w", err)
	}
	return nil
}

func (r *redisStore) ClearState(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, r.key(userID, "state"), r.key(userID, "draft")).Err(); err != nil {
		return fmt.Errorf("state: clear state: %w", err)
	}
	return nil
}

func (r *redisStore) Draft(ctx context.Context, userID int64) (map[string]string, error) {
	out, err := r.rdb.HGetAll(ctx, r.key(userID, "draft")).Result()
	if err != nil {
		return nil, fmt.Errorf("state: get draft: %w", err)
	}
	return out, nil
}

func (r *redisStore) UpdateDraft(ctx context.Context, userID int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	key := r.key(userID, "draft")
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		r.touch(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("state: update draft: %w", err)
	}
	return nil
}

func (r *redisStore) AdminMode(ctx context.Context, userID int64) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(userID, "admin")).Result()
	if err != nil {
		return false, fmt.Errorf("state: get admin mode: %w", err)
	}
	return n > 0, nil
}

func (r *redisStore) SetAdminMode(ctx context.Context, userID int64, on bool) error {
	key := r.key(userID, "admin")
	var err error
	if on {
		err = r.rdb.Set(ctx, key, "1", r.ttl).Err()
	} else {
		err = r.rdb.Del(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("state: set admin mode: %w", err)
	}
	return nil
}

func (r *redisStore) LastMessage(ctx context.Context, userID int64) (LastMessage, bool, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key(userID, "last")).Result()
	if err != nil {
		return LastMessage{}, false, fmt.Errorf("state: get last message: %w", err)
	}
	if len(vals) == 0 {
		return LastMessage{}, false, nil
	}
	chatID, err := strconv.ParseInt(vals["chat_id"], 10, 64)
	if err != nil {
		return LastMessage{}, false, fmt.Errorf("state: decode last message chat: %w", err)
	}
	msgID, err := strconv.Atoi(vals["message_id"])
	if err != nil {
		return LastMessage{}, false, fmt.Errorf("state: decode last message id: %w", err)
	}
	return LastMessage{ChatID: chatID, MessageID: msgID, HasPhoto: vals["photo"] == "1"}, true, nil
}

func (r *redisStore) SetLastMessage(ctx context.Context, userID int64, msg LastMessage) error {
	key := r.key(userID, "last")
	photo := "0"
	if msg.HasPhoto {
		photo = "1"
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"chat_id", strconv.FormatInt(msg.ChatID, 10),
			"message_id", strconv.Itoa(msg.MessageID),
			"photo", photo,
		)
		r.touch(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("state: set last message: %w", err)
	}
	return nil
}

func (r *redisStore) ClearLastMessage(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, r.key(userID, "last")).Err(); err != nil {
		return fmt.Errorf("state: clear last message: %w", err)
	}
	return nil
}

func (r *redisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, r.keys(userID)...).Err(); err != nil {
		return fmt.Errorf("state: clear session: %w", err)
	}
	return nil
}
