package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexanderramin/appraise/internal/domain"
)

// RedisAppraisalRepo stores each appraisal as one Redis hash with a field
// per stream, so a stream commit is a single HSET of its own field.
type RedisAppraisalRepo struct {
	client *redis.Client
	prefix string
}

var _ AppraisalRepo = (*RedisAppraisalRepo)(nil)

// NewRedisAppraisalRepo connects to redisURL and verifies the connection.
func NewRedisAppraisalRepo(ctx context.Context, redisURL string) (*RedisAppraisalRepo, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisAppraisalRepoWithClient(client), nil
}

// NewRedisAppraisalRepoWithClient creates a repo from an existing client.
func NewRedisAppraisalRepoWithClient(client *redis.Client) *RedisAppraisalRepo {
	return &RedisAppraisalRepo{client: client, prefix: "appraise:"}
}

func (r *RedisAppraisalRepo) key(id string) string {
	return r.prefix + "appraisal:" + id
}

func (r *RedisAppraisalRepo) indexKey() string {
	return r.prefix + "appraisals"
}

// Close releases the client.
func (r *RedisAppraisalRepo) Close() error {
	return r.client.Close()
}

func (r *RedisAppraisalRepo) Create(ctx context.Context, a *domain.Appraisal) error {
	fields, err := encodeAppraisal(a)
	if err != nil {
		return err
	}
	key := r.key(a.ID)
	created, err := r.client.HSetNX(ctx, key, fieldMeta, fields[fieldMeta]).Result()
	if err != nil {
		return fmt.Errorf("create appraisal: %w", err)
	}
	if !created {
		return fmt.Errorf("create appraisal: %s already exists", a.ID)
	}
	delete(fields, fieldMeta)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, hashValues(fields)...)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(a.CreatedAt.UnixNano()), Member: a.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("create appraisal: %w", err)
	}
	return nil
}

func (r *RedisAppraisalRepo) Read(ctx context.Context, id string) (*domain.Appraisal, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read appraisal: %w", err)
	}
	a, err := decodeAppraisal(fields)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *RedisAppraisalRepo) List(ctx context.Context) ([]*domain.Appraisal, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	out := make([]*domain.Appraisal, 0, len(ids))
	for _, id := range ids {
		a, err := r.Read(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// updateScript sets the given hash fields only when the appraisal exists.
// KEYS[1] is the hash, ARGV[1] the meta field, the rest field/value pairs.
var updateScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
for i = 2, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// Update sets only the patched hash fields. The existence check and the
// write run as one script, so commits of different streams never conflict.
func (r *RedisAppraisalRepo) Update(ctx context.Context, id string, patch AppraisalPatch) error {
	fields, err := encodePatch(patch, time.Now())
	if err != nil {
		return err
	}
	args := append([]any{fieldMeta}, hashValues(fields)...)
	updated, err := updateScript.Run(ctx, r.client, []string{r.key(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("update appraisal: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *RedisAppraisalRepo) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(id))
		pipe.ZRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete appraisal: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return nil
}

// hashValues flattens fields into HSET arguments in key order.
func hashValues(fields map[string]string) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}
