package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapwatch/internal/chain"
	"swapwatch/internal/config"
	"swapwatch/internal/pool"
	"swapwatch/internal/storage"
	"swapwatch/internal/storage/postgres"
	"swapwatch/internal/watcher"
)

func main() {
	root := &cobra.Command{
		Use:          "swapwatch",
		Short:        "Confirmed swap event watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch a pool and report confirmed swap events",
		RunE:  runWatcher,
	}

	runCmd.Flags().String("rpc", "", "Ethereum RPC URL (websocket)")
	runCmd.Flags().String("pool", "", "pool contract address (hex, 0x prefix optional)")
	runCmd.Flags().Uint64("confirmation-depth", 5, "blocks atop a block before it is treated as confirmed")
	runCmd.Flags().String("asset0-symbol", "DAI", "display symbol of the pool's asset0")
	runCmd.Flags().Uint("asset0-decimals", 18, "fixed-point decimals of asset0")
	runCmd.Flags().String("asset1-symbol", "USDC", "display symbol of the pool's asset1")
	runCmd.Flags().Uint("asset1-decimals", 6, "fixed-point decimals of asset1")
	runCmd.Flags().String("out", "", "optional JSONL path for confirmed swaps")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for confirmed swaps")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts for transient fetch failures")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatcher(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.PoolAddress == "" {
		return fmt.Errorf("pool contract address is required")
	}
	if !common.IsHexAddress(cfg.PoolAddress) {
		return fmt.Errorf("invalid pool contract address: %s", cfg.PoolAddress)
	}
	poolAddress := common.HexToAddress(cfg.PoolAddress)

	swapTopic, err := pool.SwapTopic()
	if err != nil {
		return fmt.Errorf("parse pool abi: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	var sinks []storage.Sink
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlSink(cfg.Out))
	}
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		sinks = append(sinks, pgStore)
	}
	defer func() {
		for _, sink := range sinks {
			if err := sink.Close(); err != nil {
				logger.Warn("close sink", zap.Error(err))
			}
		}
	}()

	asset0 := watcher.AssetInfo{Symbol: cfg.Asset0Symbol, Decimals: cfg.Asset0Decimals}
	asset1 := watcher.AssetInfo{Symbol: cfg.Asset1Symbol, Decimals: cfg.Asset1Decimals}
	reporter := watcher.NewReporter(os.Stdout, asset0, asset1)

	runner := watcher.NewRunner(watcher.RunConfig{
		PoolAddress:       poolAddress,
		SwapTopic:         swapTopic,
		ConfirmationDepth: cfg.ConfirmationDepth,
		Asset0:            asset0,
		Asset1:            asset1,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, chainClient, chainClient, reporter, sinks, logger)

	heads := make(chan *types.Header, 16)
	sub, err := chainClient.SubscribeNewHeads(ctx, heads)
	if err != nil {
		return fmt.Errorf("subscribe new heads: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("watcher start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("pool", poolAddress.Hex()),
		zap.String("swap_topic", swapTopic.Hex()),
		zap.Uint64("confirmation_depth", cfg.ConfirmationDepth),
		zap.String("asset0", cfg.Asset0Symbol),
		zap.String("asset1", cfg.Asset1Symbol),
		zap.Int("sinks", len(sinks)),
	)

	return runner.Run(ctx, heads, sub.Err())
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
