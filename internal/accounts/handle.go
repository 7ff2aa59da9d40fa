package accounts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
)

// Handle — one account and its brokerage session. The handle owns the
// connection lifecycle; nothing else mutates the connection state.
type Handle struct {
	Account models.Account

	svc   broker.TradingService
	state atomic.Int32

	// position snapshot cache, refreshed before sizing
	posMu sync.RWMutex
	posBy map[string]models.Position // symbol -> position
	posAt time.Time
}

func NewHandle(acct models.Account, svc broker.TradingService) *Handle {
	h := &Handle{
		Account: acct,
		svc:     svc,
		posBy:   make(map[string]models.Position),
	}
	h.state.Store(int32(models.ConnDisconnected))
	return h
}

// Service exposes the underlying trading service for market-data calls.
func (h *Handle) Service() broker.TradingService { return h.svc }

func (h *Handle) State() models.ConnState {
	return models.ConnState(h.state.Load())
}

func (h *Handle) Connected() bool {
	return h.State() == models.ConnConnected
}

// Connect authenticates the session and records the resulting state.
func (h *Handle) Connect(ctx context.Context) error {
	if err := h.svc.Connect(ctx, h.Account.CredentialsRef); err != nil {
		h.state.Store(int32(models.ConnFailed))
		return fmt.Errorf("connect account %s: %w", h.Account.ID, err)
	}
	h.state.Store(int32(models.ConnConnected))
	return nil
}

func (h *Handle) Disconnect(ctx context.Context) error {
	err := h.svc.Disconnect(ctx)
	h.state.Store(int32(models.ConnDisconnected))
	if err != nil {
		return fmt.Errorf("disconnect account %s: %w", h.Account.ID, err)
	}
	return nil
}

// Equity — current equity snapshot from the trading service.
func (h *Handle) Equity(ctx context.Context) (float64, error) {
	info, err := h.svc.AccountInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("account info %s: %w", h.Account.ID, err)
	}
	return info.Equity, nil
}

// RefreshPositions replaces the cached snapshot with a fresh one.
func (h *Handle) RefreshPositions(ctx context.Context) error {
	positions, err := h.svc.Positions(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]models.Position, len(positions))
	for _, p := range positions {
		if p.Volume <= 0 {
			continue
		}
		next[p.Symbol] = p
	}

	h.posMu.Lock()
	h.posBy = next
	h.posAt = time.Now()
	h.posMu.Unlock()
	return nil
}

// HasOpenPosition answers from the cached snapshot; callers refresh first
// when staleness matters.
func (h *Handle) HasOpenPosition(symbol string) bool {
	h.posMu.RLock()
	defer h.posMu.RUnlock()
	_, ok := h.posBy[symbol]
	return ok
}

// MarkPending records a just-dispatched order so a second signal for the
// same symbol inside one cycle cannot produce a duplicate open.
func (h *Handle) MarkPending(symbol string, side models.Side) {
	h.posMu.Lock()
	h.posBy[symbol] = models.Position{
		AccountID: h.Account.ID,
		Symbol:    symbol,
		Side:      side,
		Updated:   time.Now(),
	}
	h.posMu.Unlock()
}

func (h *Handle) PositionsAge() time.Duration {
	h.posMu.RLock()
	defer h.posMu.RUnlock()
	if h.posAt.IsZero() {
		return time.Duration(1<<62 - 1)
	}
	return time.Since(h.posAt)
}
