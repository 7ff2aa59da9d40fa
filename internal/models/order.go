package models

import "time"

// Outcome — order lifecycle. Filled/Rejected/Failed are terminal.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeFilled   Outcome = "filled"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

func (o Outcome) Terminal() bool {
	return o == OutcomeFilled || o == OutcomeRejected || o == OutcomeFailed
}

// Order — one sized trade for one account. Created by the risk sizer,
// outcome set once by the dispatcher.
type Order struct {
	ID        string
	AccountID string
	Signal    Signal

	Volume     float64
	Entry      float64
	StopLoss   float64
	TakeProfit float64

	SubmittedAt time.Time
	Outcome     Outcome
	Reason      string // broker message on rejection/failure
	Retries     int
	BrokerRef   string // broker-side order id when filled
}

// Notional — rough exposure of the order in quote currency.
func (o Order) Notional() float64 {
	return o.Volume * o.Entry
}
