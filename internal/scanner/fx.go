package scanner

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/academia/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scanner",
	fx.Provide(ProvideLocker),
	fx.Provide(New),
	fx.Invoke(StartScanner),
)

// ProvideLocker builds the redis-backed run lock. Without a redis addr
// the scanner runs unlocked, which is fine for a single instance.
func ProvideLocker(cfg config.Config) *Locker {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	return NewLocker(client)
}

func StartScanner(lc fx.Lifecycle, cfg config.Config, scanner *Scanner) {
	if !cfg.Scanner.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go scanner.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
