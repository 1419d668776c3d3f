package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/source"
	"github.com/redis/go-redis/v9"
)

// Redis keeps one hash per user with a field per source.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to the server at url and checks it is reachable.
func DialRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedis(client), nil
}

func hashKey(user string) string {
	return constant.Comiknet + ":cred:" + user
}

func (r *Redis) Save(ctx context.Context, rec *Record) error {
	stamp(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, hashKey(rec.User), rec.Source, data).Err()
}

func (r *Redis) Get(ctx context.Context, user string, src source.ID) (*Record, error) {
	data, err := r.client.HGet(ctx, hashKey(user), src).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode credential %s/%s: %w", user, src, err)
	}
	return &rec, nil
}

func (r *Redis) Delete(ctx context.Context, user string, src source.ID) error {
	n, err := r.client.HDel(ctx, hashKey(user), src).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) List(ctx context.Context, user string) ([]*Record, error) {
	all, err := r.client.HGetAll(ctx, hashKey(user)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(all))
	for src, data := range all {
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode credential %s/%s: %w", user, src, err)
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Source < records[j].Source })
	return records, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
