package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// Store provides Postgres persistence for every engine entity.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Stores returns the interface bundle backed by this store.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Pools:     s,
		Ticks:     s,
		Bitmaps:   s,
		Positions: s,
		Accounts:  s,
		History:   s,
	}
}

func (s *Store) GetPool(ctx context.Context, pair string) (*model.Pool, bool, error) {
	var p model.Pool
	row := s.pool.QueryRow(ctx, `
		SELECT pair, active, token0, token1, tick_spacing, fee_percentage, protocol_fee_percentage,
			current_tick, sqrt_price, price, liquidity, fee_growth_global0, fee_growth_global1,
			protocol_fees0, protocol_fees1, volume0, volume1, tx_count,
			total_value_locked0, total_value_locked1, created_at, updated_at
		FROM pools WHERE pair=$1
	`, pair)
	err := row.Scan(
		&p.Pair, &p.Active, &p.Token0, &p.Token1, &p.TickSpacing, &p.FeePercentage, &p.ProtocolFeePercentage,
		&p.CurrentTick, &p.SqrtPrice, &p.Price, &p.Liquidity, &p.FeeGrowthGlobal0, &p.FeeGrowthGlobal1,
		&p.ProtocolFees0, &p.ProtocolFees1, &p.Volume0, &p.Volume1, &p.TxCount,
		&p.TotalValueLocked0, &p.TotalValueLocked1, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Store) PutPool(ctx context.Context, pool *model.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			pair, active, token0, token1, tick_spacing, fee_percentage, protocol_fee_percentage,
			current_tick, sqrt_price, price, liquidity, fee_growth_global0, fee_growth_global1,
			protocol_fees0, protocol_fees1, volume0, volume1, tx_count,
			total_value_locked0, total_value_locked1, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (pair) DO UPDATE SET
			active = EXCLUDED.active,
			current_tick = EXCLUDED.current_tick,
			sqrt_price = EXCLUDED.sqrt_price,
			price = EXCLUDED.price,
			liquidity = EXCLUDED.liquidity,
			fee_growth_global0 = EXCLUDED.fee_growth_global0,
			fee_growth_global1 = EXCLUDED.fee_growth_global1,
			protocol_fees0 = EXCLUDED.protocol_fees0,
			protocol_fees1 = EXCLUDED.protocol_fees1,
			volume0 = EXCLUDED.volume0,
			volume1 = EXCLUDED.volume1,
			tx_count = EXCLUDED.tx_count,
			total_value_locked0 = EXCLUDED.total_value_locked0,
			total_value_locked1 = EXCLUDED.total_value_locked1,
			updated_at = EXCLUDED.updated_at
	`,
		pool.Pair, pool.Active, pool.Token0, pool.Token1, pool.TickSpacing,
		pool.FeePercentage, pool.ProtocolFeePercentage,
		pool.CurrentTick, pool.SqrtPrice, pool.Price, pool.Liquidity,
		pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1,
		pool.ProtocolFees0, pool.ProtocolFees1,
		pool.Volume0, pool.Volume1, int64(pool.TxCount),
		pool.TotalValueLocked0, pool.TotalValueLocked1,
		pool.CreatedAt, pool.UpdatedAt,
	)
	return err
}

func (s *Store) GetTick(ctx context.Context, pair string, index int32) (*model.Tick, bool, error) {
	var t model.Tick
	row := s.pool.QueryRow(ctx, `
		SELECT pair, tick_index, liquidity_gross, liquidity_net,
			fee_growth_outside0, fee_growth_outside1, initialized, created_at, updated_at
		FROM ticks WHERE pair=$1 AND tick_index=$2
	`, pair, index)
	err := row.Scan(
		&t.Pair, &t.Index, &t.LiquidityGross, &t.LiquidityNet,
		&t.FeeGrowthOutside0, &t.FeeGrowthOutside1, &t.Initialized, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &t, true, nil
}

func (s *Store) PutTick(ctx context.Context, tick *model.Tick) error {
	if tick == nil {
		return fmt.Errorf("tick is nil")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ticks (
			pair, tick_index, liquidity_gross, liquidity_net,
			fee_growth_outside0, fee_growth_outside1, initialized, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (pair, tick_index) DO UPDATE SET
			liquidity_gross = EXCLUDED.liquidity_gross,
			liquidity_net = EXCLUDED.liquidity_net,
			fee_growth_outside0 = EXCLUDED.fee_growth_outside0,
			fee_growth_outside1 = EXCLUDED.fee_growth_outside1,
			initialized = EXCLUDED.initialized,
			updated_at = EXCLUDED.updated_at
	`,
		tick.Pair, tick.Index, tick.LiquidityGross, tick.LiquidityNet,
		tick.FeeGrowthOutside0, tick.FeeGrowthOutside1, tick.Initialized,
		tick.CreatedAt, tick.UpdatedAt,
	)
	return err
}

func (s *Store) GetTickBitmap(ctx context.Context, pair string) (*model.TickBitmap, bool, error) {
	var b model.TickBitmap
	var words []byte
	row := s.pool.QueryRow(ctx, `SELECT pair, words, updated_at FROM tick_bitmaps WHERE pair=$1`, pair)
	if err := row.Scan(&b.Pair, &words, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal(words, &b.Words); err != nil {
		return nil, false, fmt.Errorf("decode bitmap words: %w", err)
	}
	if b.Words == nil {
		b.Words = make(map[int32]uint64)
	}
	return &b, true, nil
}

func (s *Store) PutTickBitmap(ctx context.Context, bitmap *model.TickBitmap) error {
	if bitmap == nil {
		return fmt.Errorf("bitmap is nil")
	}
	words, err := json.Marshal(bitmap.Words)
	if err != nil {
		return fmt.Errorf("encode bitmap words: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tick_bitmaps (pair, words, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (pair) DO UPDATE SET
			words = EXCLUDED.words,
			updated_at = EXCLUDED.updated_at
	`, bitmap.Pair, words, bitmap.UpdatedAt)
	return err
}

func (s *Store) GetPosition(ctx context.Context, id string) (*model.Position, bool, error) {
	var p model.Position
	row := s.pool.QueryRow(ctx, `
		SELECT id, pair, account0_key, account1_key, tick_lower_index, tick_upper_index,
			liquidity, amount0, amount1, amount0_initial, amount1_initial, slippage,
			fee_growth_inside0_last, fee_growth_inside1_last, tokens_owed0, tokens_owed1,
			fee_collected0, fee_collected1, withdraw0, withdraw1, status,
			created_at, updated_at, stopped_at
		FROM positions WHERE id=$1
	`, id)
	err := row.Scan(
		&p.ID, &p.Pair, &p.Account0Key, &p.Account1Key, &p.TickLowerIndex, &p.TickUpperIndex,
		&p.Liquidity, &p.Amount0, &p.Amount1, &p.Amount0Initial, &p.Amount1Initial, &p.Slippage,
		&p.FeeGrowthInside0Last, &p.FeeGrowthInside1Last, &p.TokensOwed0, &p.TokensOwed1,
		&p.FeeCollected0, &p.FeeCollected1, &p.Withdraw0, &p.Withdraw1, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &p.StoppedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Store) PutPosition(ctx context.Context, position *model.Position) error {
	if position == nil {
		return fmt.Errorf("position is nil")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO positions (
			id, pair, account0_key, account1_key, tick_lower_index, tick_upper_index,
			liquidity, amount0, amount1, amount0_initial, amount1_initial, slippage,
			fee_growth_inside0_last, fee_growth_inside1_last, tokens_owed0, tokens_owed1,
			fee_collected0, fee_collected1, withdraw0, withdraw1, status,
			created_at, updated_at, stopped_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		ON CONFLICT (id) DO UPDATE SET
			liquidity = EXCLUDED.liquidity,
			amount0 = EXCLUDED.amount0,
			amount1 = EXCLUDED.amount1,
			fee_growth_inside0_last = EXCLUDED.fee_growth_inside0_last,
			fee_growth_inside1_last = EXCLUDED.fee_growth_inside1_last,
			tokens_owed0 = EXCLUDED.tokens_owed0,
			tokens_owed1 = EXCLUDED.tokens_owed1,
			fee_collected0 = EXCLUDED.fee_collected0,
			fee_collected1 = EXCLUDED.fee_collected1,
			withdraw0 = EXCLUDED.withdraw0,
			withdraw1 = EXCLUDED.withdraw1,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			stopped_at = EXCLUDED.stopped_at
	`,
		position.ID, position.Pair, position.Account0Key, position.Account1Key,
		position.TickLowerIndex, position.TickUpperIndex,
		position.Liquidity, position.Amount0, position.Amount1,
		position.Amount0Initial, position.Amount1Initial, position.Slippage,
		position.FeeGrowthInside0Last, position.FeeGrowthInside1Last,
		position.TokensOwed0, position.TokensOwed1,
		position.FeeCollected0, position.FeeCollected1,
		position.Withdraw0, position.Withdraw1, string(position.Status),
		position.CreatedAt, position.UpdatedAt, position.StoppedAt,
	)
	return err
}

func (s *Store) GetAccount(ctx context.Context, key string) (*model.Account, bool, error) {
	var a model.Account
	row := s.pool.QueryRow(ctx, `
		SELECT key, currency, available_balance, frozen_balance, updated_at
		FROM accounts WHERE key=$1
	`, key)
	err := row.Scan(&a.Key, &a.Currency, &a.AvailableBalance, &a.FrozenBalance, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &a, true, nil
}

func (s *Store) PutAccount(ctx context.Context, account *model.Account) error {
	if account == nil {
		return fmt.Errorf("account is nil")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (key, currency, available_balance, frozen_balance, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (key) DO UPDATE SET
			available_balance = EXCLUDED.available_balance,
			frozen_balance = EXCLUDED.frozen_balance,
			updated_at = EXCLUDED.updated_at
	`, account.Key, account.Currency, account.AvailableBalance, account.FrozenBalance, account.UpdatedAt)
	return err
}

func (s *Store) RecordAccountHistory(ctx context.Context, record model.AccountHistory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO account_history (account_key, type, amount, reference, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, record.AccountKey, record.Type, record.Amount, record.Reference, record.CreatedAt)
	return err
}
