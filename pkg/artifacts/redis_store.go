package artifacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oil-sales-api/pkg/errx"
	logx "oil-sales-api/pkg/logger"
)

// RedisStore は成果物を <prefix>:<bundle-id>:<name> に保存し、
// 同じ MULTI/EXEC の中で <prefix>:current を新しいIDへ切り替えます。
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "oilsales:artifacts"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// DialRedis はURLからクライアントを作り、疎通を確認します。
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) currentKey() string {
	return s.prefix + ":current"
}

func (s *RedisStore) blobKey(bundleID, name string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, bundleID, name)
}

func (s *RedisStore) Save(ctx context.Context, b *Bundle) error {
	blobs, err := Encode(b)
	if err != nil {
		return err
	}
	id := b.Manifest.BundleID
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, data := range blobs {
			pipe.Set(ctx, s.blobKey(id, name), data, 0)
		}
		pipe.Set(ctx, s.currentKey(), id, 0)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("bundle_id", id).Msg("failed to publish bundle to redis")
		return fmt.Errorf("publish bundle %s: %w", id, err)
	}
	logx.Info().Str("bundle_id", id).Str("prefix", s.prefix).Msg("bundle saved")
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*Bundle, error) {
	id, err := s.rdb.Get(ctx, s.currentKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errx.NewArtifactError(s.currentKey(), "no bundle has been published")
	}
	if err != nil {
		return nil, fmt.Errorf("read current bundle id: %w", err)
	}

	names := append([]string{ManifestFile}, BlobNames...)
	cmds := make(map[string]*redis.StringCmd, len(names))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range names {
			cmds[name] = pipe.Get(ctx, s.blobKey(id, name))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read bundle %s: %w", id, err)
	}

	blobs := make(map[string][]byte, len(names))
	for name, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, &errx.ArtifactError{Artifact: name, Err: err}
		}
		blobs[name] = data
	}
	return Decode(blobs)
}

var _ Store = (*RedisStore)(nil)
