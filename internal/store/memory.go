package store

import (
	"context"
	"fmt"
	"sync"

	"liquidityEngine/internal/model"
)

// MemoryStore is a map-backed implementation of every store interface.
// Entities are cloned on get and put so callers never share live references
// with the store.
type MemoryStore struct {
	mu        sync.Mutex
	pools     map[string]*model.Pool
	ticks     map[string]*model.Tick
	bitmaps   map[string]*model.TickBitmap
	positions map[string]*model.Position
	accounts  map[string]*model.Account
	history   []model.AccountHistory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:     make(map[string]*model.Pool),
		ticks:     make(map[string]*model.Tick),
		bitmaps:   make(map[string]*model.TickBitmap),
		positions: make(map[string]*model.Position),
		accounts:  make(map[string]*model.Account),
	}
}

// Stores returns the interface bundle backed by this store.
func (s *MemoryStore) Stores() Stores {
	return Stores{
		Pools:     s,
		Ticks:     s,
		Bitmaps:   s,
		Positions: s,
		Accounts:  s,
		History:   s,
	}
}

func tickKey(pair string, index int32) string {
	return fmt.Sprintf("%s:%d", pair, index)
}

func (s *MemoryStore) GetPool(ctx context.Context, pair string) (*model.Pool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[pair]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (s *MemoryStore) PutPool(ctx context.Context, pool *model.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.Pair] = pool.Clone()
	return nil
}

func (s *MemoryStore) GetTick(ctx context.Context, pair string, index int32) (*model.Tick, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick, ok := s.ticks[tickKey(pair, index)]
	if !ok {
		return nil, false, nil
	}
	return tick.Clone(), true, nil
}

func (s *MemoryStore) PutTick(ctx context.Context, tick *model.Tick) error {
	if tick == nil {
		return fmt.Errorf("tick is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[tickKey(tick.Pair, tick.Index)] = tick.Clone()
	return nil
}

func (s *MemoryStore) GetTickBitmap(ctx context.Context, pair string) (*model.TickBitmap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bitmap, ok := s.bitmaps[pair]
	if !ok {
		return nil, false, nil
	}
	return bitmap.Clone(), true, nil
}

func (s *MemoryStore) PutTickBitmap(ctx context.Context, bitmap *model.TickBitmap) error {
	if bitmap == nil {
		return fmt.Errorf("bitmap is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitmaps[bitmap.Pair] = bitmap.Clone()
	return nil
}

func (s *MemoryStore) GetPosition(ctx context.Context, id string) (*model.Position, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.positions[id]
	if !ok {
		return nil, false, nil
	}
	return position.Clone(), true, nil
}

func (s *MemoryStore) PutPosition(ctx context.Context, position *model.Position) error {
	if position == nil {
		return fmt.Errorf("position is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[position.ID] = position.Clone()
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, key string) (*model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[key]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (s *MemoryStore) PutAccount(ctx context.Context, account *model.Account) error {
	if account == nil {
		return fmt.Errorf("account is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Key] = account.Clone()
	return nil
}

func (s *MemoryStore) RecordAccountHistory(ctx context.Context, record model.AccountHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, record)
	return nil
}

// HistoryRecords returns a copy of the recorded history, oldest first.
func (s *MemoryStore) HistoryRecords() []model.AccountHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AccountHistory, len(s.history))
	copy(out, s.history)
	return out
}
