package artifacts

import (
	"context"
	"fmt"

	config "oil-sales-api/configs"
)

// OpenStore は設定に従って保存先を開きます。返される close 関数は常に呼び出せます。
func OpenStore(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.ArtifactBackend {
	case config.BackendRedis:
		client, err := DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, func() {}, err
		}
		return NewRedisStore(client, cfg.RedisKeyPrefix), func() { client.Close() }, nil
	case config.BackendFile, "":
		return NewFileStore(cfg.ModelDir), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
	}
}
