package redisholder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
)

// Build connects to the configured nodes, preferring cluster mode, and keeps
// the connection healthy in the background until ctx is done.
func Build(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*Holder, error) {
	log = log.Named("redis")

	cl, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	h := NewHolder(cl)

	if cfg.HealthCheckInterval > 0 {
		go healthLoop(ctx, h, cfg, log)
	}

	return h, nil
}

func connect(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	cl, clusterErr := newClusterClient(cfg)
	if clusterErr == nil {
		return cl, nil
	}
	single, err := newClient(cfg)
	if err != nil {
		return nil, errors.Join(clusterErr, err)
	}
	return single, nil
}

func healthLoop(ctx context.Context, h *Holder, cfg *config.RedisConfig, log *logger.Logger) {
	log.Infow("health loop started", "interval", cfg.HealthCheckInterval)

	ping := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.Get().Ping(pingCtx).Err()
		cancel()

		if err == nil {
			return
		}
		log.Warnw("ping failed, attempting reconnect", "error", err)

		newCl, err := connect(cfg)
		if err != nil {
			log.Errorw("reconnect failed", "error", err)
			return
		}

		if old := h.swap(newCl); old != nil {
			_ = old.Close()
		}
		log.Infow("reconnected")
	}

	t := time.NewTicker(cfg.HealthCheckInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.Close()
			log.Infow("health loop stopped", "reason", ctx.Err())
			return
		case <-t.C:
			ping()
		}
	}
}

func newClusterClient(cfg *config.RedisConfig) (*redis.ClusterClient, error) {
	// a single node is never a cluster
	if len(cfg.Nodes) < 2 {
		return nil, errors.New("cluster mode needs at least two nodes")
	}

	nodeAddrs := make([]string, 0, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		nodeAddrs = append(nodeAddrs, node.Addr())
	}

	cl := redis.NewClusterClient(&redis.ClusterOptions{
		RouteByLatency: true,
		Password:       cfg.Password,
		Addrs:          nodeAddrs,
		DialTimeout:    cfg.DialTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		PoolSize:       cfg.PoolSize,
		PoolTimeout:    30 * time.Second,
	})

	if err := cl.Ping(context.Background()).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("error pinging redis cluster: %w", err)
	}

	return cl, nil
}

func newClient(cfg *config.RedisConfig) (*redis.Client, error) {
	var stickyErr = errors.New("no nodes defined")

	for _, node := range cfg.Nodes {
		cl := redis.NewClient(&redis.Options{
			Addr:         node.Addr(),
			Password:     cfg.Password,
			DB:           cfg.DatabaseID,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PoolSize:     cfg.PoolSize,
		})

		if err := cl.Ping(context.Background()).Err(); err != nil {
			_ = cl.Close()
			stickyErr = fmt.Errorf("error pinging redis server %s: %w", node.Addr(), err)
			continue
		}

		return cl, nil
	}

	return nil, stickyErr
}
