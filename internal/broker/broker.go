package broker

import (
	"context"
	"errors"
	"fmt"

	"quantum_bot/internal/models"
)

// TradingService — one authenticated brokerage session for one account.
// Implementations own the connection; the orchestration core only calls
// through this interface and never touches broker wire details.
type TradingService interface {
	Connect(ctx context.Context, credentialsRef string) error
	Disconnect(ctx context.Context) error

	AccountInfo(ctx context.Context) (models.AccountInfo, error)
	SymbolTick(ctx context.Context, symbol string) (models.Tick, error)
	Candles(ctx context.Context, symbol, timeframe string, count int) ([]models.Candle, error)
	Positions(ctx context.Context) ([]models.Position, error)
	InstrumentMeta(ctx context.Context, symbol string) (models.Instrument, error)

	// SubmitOrder fills in BrokerRef on success. A broker-side rejection is
	// returned as *RejectionError; anything else is treated as transient.
	SubmitOrder(ctx context.Context, order *models.Order) error
}

// ErrDataUnavailable — market data missing for a symbol. The scanner skips
// the symbol and the cycle proceeds.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrNotConnected — call made on a session that is not connected.
var ErrNotConnected = errors.New("session not connected")

// RejectionError — explicit broker rejection (invalid price, insufficient
// margin). Terminal: never retried.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("broker rejection: %s", e.Reason)
}

// IsRejection reports whether err is a broker-side rejection.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// IsTransient classifies every submit failure that is not an explicit
// rejection as retryable: timeouts, temporary disconnects, context deadlines.
func IsTransient(err error) bool {
	return err != nil && !IsRejection(err)
}
