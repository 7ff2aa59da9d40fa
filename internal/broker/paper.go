package broker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quantum_bot/internal/models"
)

// Paper — in-memory trading service. Fills every order instantly against a
// locally simulated price. Used by the shadow module to mirror signals
// without touching a live account, and by tests.
type Paper struct {
	mu        sync.Mutex
	connected bool
	balance   float64
	positions map[string]models.Position // symbol -> open position
	prices    map[string]float64
	candles   map[string][]models.Candle
	meta      map[string]models.Instrument

	// fault injection for tests: next N submits fail with submitErr
	failNext  int
	submitErr error
}

func NewPaper(startBalance float64) *Paper {
	return &Paper{
		balance:   startBalance,
		positions: make(map[string]models.Position),
		prices:    make(map[string]float64),
		candles:   make(map[string][]models.Candle),
		meta:      make(map[string]models.Instrument),
	}
}

// SetPrice seeds the simulated last price for a symbol.
func (p *Paper) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// SeedCandles preloads bar history returned by Candles.
func (p *Paper) SeedCandles(symbol string, bars []models.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candles[symbol] = bars
}

// SetInstrument overrides the default volume constraints for a symbol.
func (p *Paper) SetInstrument(meta models.Instrument) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta[meta.Symbol] = meta
}

// FailSubmits makes the next n SubmitOrder calls return err.
func (p *Paper) FailSubmits(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
	p.submitErr = err
}

func (p *Paper) Connect(ctx context.Context, credentialsRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *Paper) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *Paper) AccountInfo(ctx context.Context) (models.AccountInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return models.AccountInfo{}, ErrNotConnected
	}
	equity := p.balance
	for _, pos := range p.positions {
		equity += pos.Unrealized
	}
	return models.AccountInfo{
		Balance:  p.balance,
		Equity:   equity,
		Currency: "USDT",
		Leverage: 1,
	}, nil
}

func (p *Paper) SymbolTick(ctx context.Context, symbol string) (models.Tick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	px, ok := p.prices[symbol]
	if !ok {
		return models.Tick{}, ErrDataUnavailable
	}
	// small random walk so repeated reads look alive
	px += (rand.Float64()*0.002 - 0.001) * px
	p.prices[symbol] = px
	return models.Tick{Symbol: symbol, Bid: px, Ask: px * 1.0001, At: time.Now()}, nil
}

func (p *Paper) Candles(ctx context.Context, symbol, timeframe string, count int) ([]models.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bars, ok := p.candles[symbol]
	if !ok {
		return nil, ErrDataUnavailable
	}
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	out := make([]models.Candle, len(bars))
	copy(out, bars)
	return out, nil
}

func (p *Paper) Positions(ctx context.Context) ([]models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil, ErrNotConnected
	}
	out := make([]models.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	return out, nil
}

func (p *Paper) InstrumentMeta(ctx context.Context, symbol string) (models.Instrument, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if meta, ok := p.meta[symbol]; ok {
		return meta, nil
	}
	return models.Instrument{
		Symbol:     symbol,
		MinVolume:  0.01,
		MaxVolume:  100,
		VolumeStep: 0.01,
		TickSize:   0.0001,
	}, nil
}

func (p *Paper) SubmitOrder(ctx context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return ErrNotConnected
	}
	if p.failNext > 0 {
		p.failNext--
		return p.submitErr
	}
	if order.Volume <= 0 {
		return &RejectionError{Reason: "invalid volume"}
	}
	if _, open := p.positions[order.Signal.Symbol]; open {
		return &RejectionError{Reason: "position already open"}
	}

	order.BrokerRef = uuid.NewString()
	p.positions[order.Signal.Symbol] = models.Position{
		AccountID: order.AccountID,
		Symbol:    order.Signal.Symbol,
		Side:      order.Signal.Side,
		Volume:    order.Volume,
		OpenPrice: order.Entry,
		Updated:   time.Now(),
	}
	return nil
}
