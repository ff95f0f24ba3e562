// Package commands implements the farmctl command tree.
package commands

import (
	"errors"
	"fmt"
	"os"

	"unicornfarm/internal/cache"
	"unicornfarm/internal/config"
	"unicornfarm/internal/database"
	"unicornfarm/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// runtime holds the lazily opened dependencies shared by subcommands.
type runtime struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client
}

func (r *runtime) config() (*config.Config, error) {
	if r.cfg != nil {
		return r.cfg, nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)
	r.cfg = cfg
	return cfg, nil
}

func (r *runtime) database() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// redisClient returns nil without error when Redis is unreachable.
func (r *runtime) redisClient() (*redis.Client, error) {
	if r.redis != nil {
		return r.redis, nil
	}
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	r.redis = cache.Connect(cfg.RedisURL)
	return r.redis, nil
}

func (r *runtime) close() {
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

var errRedisRequired = errors.New("redis is not reachable; check REDIS_URL")

// NewRootCmd builds the farmctl command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "farmctl",
		Short: "Operate the unicorn farm",
		Long: `farmctl manages the unicorn farm database and watches purchases.

Configuration is read the same way as the API server: config.yml, an optional
config.<APP_ENV>.yml profile, and environment variables.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}

	root.AddCommand(
		newMigrateCmd(rt),
		newSeedCmd(rt),
		newUnicornCmd(rt),
		newEventsCmd(rt),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
