package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/engine"
	"liquidityEngine/internal/publish"
	"liquidityEngine/internal/store"
	"liquidityEngine/internal/store/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "engine",
		Short:        "Concentrated-liquidity position engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the command loop",
		RunE:  runEngine,
	}

	runCmd.Flags().String("in", "./data/commands.jsonl", "input commands JSONL path")
	runCmd.Flags().String("out", "./data/results.jsonl", "output results JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (omit for in-memory stores)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	initCmd := &cobra.Command{
		Use:   "init-pools",
		Short: "Bootstrap pools and accounts from config",
		RunE:  runInitPools,
	}

	initCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	initCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(initCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.OutPath == "" {
		return fmt.Errorf("output path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := buildStores(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeStores()

	publisher := publish.NewJsonlPublisher(cfg.OutPath)

	runner := engine.NewRunner(engine.RunConfig{
		InputPath:         cfg.InputPath,
		CheckpointPath:    cfg.CheckpointPath,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, stores, publisher, logger)

	logger.Info("engine start",
		zap.String("in", cfg.InputPath),
		zap.String("out", cfg.OutPath),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.CheckpointPath),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return runner.Run(ctx)
}

func buildStores(ctx context.Context, dsn string) (store.Stores, func(), error) {
	if dsn == "" {
		memory := store.NewMemoryStore()
		return memory.Stores(), func() {}, nil
	}
	pg, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return store.Stores{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pg.Stores(), pg.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
