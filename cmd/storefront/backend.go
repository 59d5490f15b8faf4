package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"

	"github.com/hoka-shop/storefront/internal/config"
	"github.com/hoka-shop/storefront/internal/errors"
	"github.com/hoka-shop/storefront/pkg/persist"
)

// openBackend builds the server-side state backend named in cfg. The cookie
// backend has no server-side store and yields nil. The returned close
// function releases connections and is never nil.
func openBackend(ctx context.Context, cfg *config.Config) (persist.Blobs, func() error, error) {
	noop := func() error { return nil }
	p := cfg.Persistence

	switch p.Backend {
	case config.BackendCookie:
		return nil, noop, nil

	case config.BackendMemory:
		return persist.NewMemory(), noop, nil

	case config.BackendFile:
		dir, err := persist.NewDir(p.Dir)
		if err != nil {
			return nil, noop, err
		}
		return dir, noop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     p.Redis.Addr,
			Password: p.Redis.Password,
			DB:       p.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, errors.New("S202").
				WithDetail(fmt.Sprintf("cannot reach Redis at %s", p.Redis.Addr)).
				Wrap(err)
		}
		blobs := persist.NewRedis(client,
			persist.WithRedisPrefix(p.Redis.Prefix),
			persist.WithRedisTTL(cfg.RedisTTL()),
		)
		return blobs, client.Close, nil

	case config.BackendS3:
		var opts []func(*awsconfig.LoadOptions) error
		if p.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(p.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, noop, errors.New("S100").
				WithDetail("cannot load AWS configuration").
				Wrap(err)
		}
		return persist.NewS3(s3.NewFromConfig(awsCfg), p.S3.Bucket, p.S3.Prefix), noop, nil
	}

	return nil, noop, errors.New("S103").WithDetail("got " + p.Backend)
}

// openLocalState returns the backend the CLI reads and writes, scoped to
// session the same way the server scopes visitors. The cookie and memory
// backends hold nothing the CLI can reach, so the file backend stands in.
func openLocalState(ctx context.Context, cfg *config.Config, session string) (persist.Blobs, func() error, error) {
	if cfg.Persistence.Backend == config.BackendCookie || cfg.Persistence.Backend == config.BackendMemory {
		local := *cfg
		local.Persistence.Backend = config.BackendFile
		cfg = &local
	}
	blobs, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, closeFn, err
	}
	return persist.Prefixed(blobs, session+":"), closeFn, nil
}
