package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityEngine/internal/amm"
	"liquidityEngine/internal/config"
	"liquidityEngine/internal/model"
)

func runInitPools(cmd *cobra.Command, _ []string) error {
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

	if len(cfg.Pools) == 0 && len(cfg.Accounts) == 0 {
		return fmt.Errorf("config defines no pools or accounts")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := buildStores(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeStores()

	now := time.Now().UTC()
	for _, def := range cfg.Pools {
		pool, err := poolFromDefinition(def, now)
		if err != nil {
			return fmt.Errorf("pool %s: %w", def.Pair, err)
		}
		if _, exists, err := stores.Pools.GetPool(ctx, pool.Pair); err != nil {
			return err
		} else if exists {
			logger.Info("pool exists, skipping", zap.String("pair", pool.Pair))
			continue
		}
		if err := stores.Pools.PutPool(ctx, pool); err != nil {
			return fmt.Errorf("put pool %s: %w", pool.Pair, err)
		}
		if err := stores.Bitmaps.PutTickBitmap(ctx, model.NewTickBitmap(pool.Pair, now)); err != nil {
			return fmt.Errorf("put bitmap %s: %w", pool.Pair, err)
		}
		logger.Info("pool created",
			zap.String("pair", pool.Pair),
			zap.Int32("tick", pool.CurrentTick),
			zap.String("price", pool.Price.String()),
		)
	}

	for _, def := range cfg.Accounts {
		if def.Key == "" {
			return fmt.Errorf("account key is required")
		}
		if def.Balance.IsNegative() {
			return fmt.Errorf("account %s: balance must not be negative", def.Key)
		}
		account := &model.Account{
			Key:              def.Key,
			Currency:         def.Currency,
			AvailableBalance: def.Balance,
			FrozenBalance:    decimal.Zero,
			UpdatedAt:        now,
		}
		if err := stores.Accounts.PutAccount(ctx, account); err != nil {
			return fmt.Errorf("put account %s: %w", def.Key, err)
		}
		logger.Info("account seeded", zap.String("key", def.Key), zap.String("balance", def.Balance.String()))
	}

	return nil
}

func poolFromDefinition(def config.PoolDefinition, now time.Time) (*model.Pool, error) {
	if def.Pair == "" {
		return nil, fmt.Errorf("pair is required")
	}
	if !common.IsHexAddress(def.Token0) || !common.IsHexAddress(def.Token1) {
		return nil, fmt.Errorf("token identifiers must be hex addresses")
	}
	if def.TickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive")
	}
	if !def.InitialPrice.IsPositive() {
		return nil, fmt.Errorf("initial price must be positive")
	}
	if def.FeePercentage.IsNegative() || def.ProtocolFeePercentage.IsNegative() {
		return nil, fmt.Errorf("fee percentages must not be negative")
	}

	tick, err := amm.PriceToTick(def.InitialPrice)
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := amm.SqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}

	return &model.Pool{
		Pair:                  def.Pair,
		Active:                true,
		Token0:                common.HexToAddress(def.Token0).Hex(),
		Token1:                common.HexToAddress(def.Token1).Hex(),
		TickSpacing:           def.TickSpacing,
		FeePercentage:         def.FeePercentage,
		ProtocolFeePercentage: def.ProtocolFeePercentage,
		CurrentTick:           tick,
		SqrtPrice:             sqrtPrice,
		Price:                 sqrtPrice.Mul(sqrtPrice),
		Liquidity:             decimal.Zero,
		FeeGrowthGlobal0:      decimal.Zero,
		FeeGrowthGlobal1:      decimal.Zero,
		ProtocolFees0:         decimal.Zero,
		ProtocolFees1:         decimal.Zero,
		Volume0:               decimal.Zero,
		Volume1:               decimal.Zero,
		TotalValueLocked0:     decimal.Zero,
		TotalValueLocked1:     decimal.Zero,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}
