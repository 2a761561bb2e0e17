package bootstrap

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wahook/internal/config"
	"wahook/internal/logger"
)

const redisPingTimeout = 5 * time.Second

type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

// InitRedis connects the dedup store. It returns a nil client when
// deduplication is off.
func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	if !dc.Config.Deduplication.Enabled {
		return nil, nil
	}

	rc := dc.Config.Database.Redis
	addr := net.JoinHostPort(rc.Host, strconv.Itoa(rc.Port))
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", addr, err)
	}

	dc.Logger.Infow("Redis connected", "addr", addr, "db", rc.DB)
	return rdb, nil
}

func (dc *DatabaseConnector) ShutdownDatabases(rdb *redis.Client) []error {
	if rdb == nil {
		return nil
	}
	if err := rdb.Close(); err != nil {
		return []error{fmt.Errorf("redis close error: %w", err)}
	}
	return nil
}
