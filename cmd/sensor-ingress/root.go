package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/cache"
	"github.com/David-Botos/sensor-ingress/pkg/config"
	"github.com/David-Botos/sensor-ingress/pkg/connector"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
	"github.com/David-Botos/sensor-ingress/pkg/store"
	"github.com/David-Botos/sensor-ingress/pkg/transfer"
)

var (
	envFile string
	variant string
)

var rootCmd = &cobra.Command{
	Use:   "sensor-ingress",
	Short: "Decode air-treatment controller exports into sensor readings",
	Long: `sensor-ingress reads spreadsheet exports of air-treatment controllers, decodes
the free-text content column into individual sensor readings and stores them
for charting. Configuration comes from the environment (or a .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load before the environment is read")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "pipeline variant (basic|extended), overrides PIPELINE_VARIANT")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app holds the wired components shared by the subcommands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	manager  *transfer.Manager
	closers  []func() error
}

// loadConfig reads the configuration and builds the logger
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if variant != "" {
		cfg.PipelineVariant = variant
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// newPipeline builds the decoding pipeline from configuration
func newPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, *converter.TypeConverter, error) {
	labels, err := config.LoadLabelTable(cfg.LabelTablePath)
	if err != nil {
		return nil, nil, err
	}

	pcfg, err := pipeline.ConfigForVariant(cfg.PipelineVariant, labels)
	if err != nil {
		return nil, nil, err
	}

	conv := converter.NewTypeConverterWithConfig(logger, converter.TypeConverterConfig{
		DefaultTimezone:   cfg.DefaultTimezone,
		EmptyStringAsNull: true,
	})

	p, err := pipeline.New(pcfg, conv, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return p, conv, nil
}

// newApp wires the pipeline, the sink and the parameter cache
func newApp(ctx context.Context, withCache bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	p, conv, err := newPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.pipeline = p

	factory := connector.NewConnectorFactory(cfg, logger)
	sink, err := factory.CreateSink(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sink: %w", err)
	}
	a.closers = append(a.closers, sink.Close)

	db := sqlx.NewDb(sink.DB(), sink.DriverName())
	s, err := store.New(db, sink.Dialect(), conv, store.Options{
		BatchSize:    cfg.InsertBatchSize,
		StatusLabels: cfg.StatusLabels,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.AuditCleaning {
		if err := p.Cleaner().EnableAudit(ctx, db, sink.Dialect()); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to enable cleaning audit: %w", err)
		}
	}

	var paramCache *cache.ParamCache
	if withCache {
		client, err := newCacheClient(ctx, cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		paramCache = cache.NewParamCache(client, cfg.ParamCacheTTL, logger)
	}

	manager, err := transfer.NewManager(p, s, paramCache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.manager = manager

	return a, nil
}

// newCacheClient connects to Redis when configured and otherwise keeps the
// cache in process
func newCacheClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Client, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, caching params in memory")
		return cache.NewMemoryClient(), nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr))
	return client, nil
}

// Close releases the sink and cache connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error during shutdown", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// commandTimeout bounds one-shot commands
const commandTimeout = 10 * time.Minute
