package dispatch

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
	"quantum_bot/internal/store"
	"quantum_bot/pkg/logger"
)

type Config struct {
	MaxRetries  int           // transient-failure retry budget
	Backoff     time.Duration // linear: attempt n sleeps n × Backoff
	CallTimeout time.Duration // per submit attempt
}

// Dispatcher submits sized orders to each account's trading service and
// records outcomes. Accounts never share fate: a failure on one account is
// invisible to the dispatch of the same signal on another.
type Dispatcher struct {
	cfg     Config
	history store.TradeWriter
}

func New(cfg Config, history store.TradeWriter) *Dispatcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &Dispatcher{cfg: cfg, history: history}
}

// Execute drives the order to a terminal outcome and appends it to trade
// history. A broker rejection is terminal immediately; transient failures
// retry with linear backoff until the budget runs out.
//
// The submit attempts run on a context detached from cycle cancellation:
// once an order is dispatched, a shutdown request waits for its terminal
// outcome instead of abandoning it mid-flight.
func (d *Dispatcher) Execute(ctx context.Context, h *accounts.Handle, order *models.Order) *models.Order {
	span, _ := opentracing.StartSpanFromContext(ctx, "dispatch.execute")
	span.SetTag("account", order.AccountID)
	span.SetTag("symbol", order.Signal.Symbol)
	defer span.Finish()

	detached := context.WithoutCancel(ctx)
	order.SubmittedAt = time.Now()

	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(detached, d.cfg.CallTimeout)
		err := h.Service().SubmitOrder(attemptCtx, order)
		cancel()

		if err == nil {
			order.Outcome = models.OutcomeFilled
			order.Retries = attempt
			h.MarkPending(order.Signal.Symbol, order.Signal.Side)
			break
		}

		if broker.IsRejection(err) {
			// retrying a rejection wastes cycles and can trip rate limits
			order.Outcome = models.OutcomeRejected
			order.Retries = attempt
			order.Reason = err.Error()
			break
		}

		if attempt >= d.cfg.MaxRetries {
			order.Outcome = models.OutcomeFailed
			order.Retries = attempt
			order.Reason = err.Error()
			break
		}

		logger.Warn("[DISPATCH] %s %s transient failure (attempt %d/%d): %v",
			order.AccountID, order.Signal.Symbol, attempt+1, d.cfg.MaxRetries, err)
		time.Sleep(time.Duration(attempt+1) * d.cfg.Backoff)
	}

	span.SetTag("outcome", string(order.Outcome))

	if err := d.history.AppendTrade(detached, *order); err != nil {
		// history is write-only bookkeeping; losing one row never fails a trade
		logger.Error("[DISPATCH] append trade %s: %v", order.ID, err)
	}

	return order
}
