package database

import (
	"context"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/errors"
)

// ConnectPostgres opens the pool and verifies it with a ping. Failures carry
// ErrCodeDatabaseConnectionFailed.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	pg, err := NewPostgres(cfg)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	return pg, nil
}

// ConnectRedis is ConnectPostgres for the reference cache.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	rdb, err := NewRedis(cfg)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	if err := rdb.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	return rdb, nil
}

func ConnectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := NewElasticsearch(cfg)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	if err := es.Ping(ctx); err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	return es, nil
}
