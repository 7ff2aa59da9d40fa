package risk

import (
	"math"

	"github.com/google/uuid"

	"quantum_bot/internal/models"
)

// Suppression — a deliberate non-order decision. Distinct from an error:
// the cycle records it and moves on.
type Suppression string

const (
	SuppressedNone         Suppression = ""
	SuppressedOpenPosition Suppression = "open_position"
	SuppressedBelowMin     Suppression = "below_min_volume"
	SuppressedDisconnected Suppression = "not_connected"
	SuppressedInvalidStop  Suppression = "invalid_stop"
)

// AccountView — everything the sizer needs to decide for one account,
// captured immediately before the decision so the open-position check is as
// fresh as possible.
type AccountView struct {
	AccountID    string
	Connected    bool
	Equity       float64
	RiskPerTrade float64
	HasPosition  bool // open position for the signal's symbol
	Meta         models.Instrument
}

// Sizer converts signals into per-account orders. Deterministic: the same
// signal and view always produce the same volume, so each account can run a
// distinct risk fraction against one signal and the results stay comparable.
type Sizer struct{}

func NewSizer() *Sizer { return &Sizer{} }

// Size returns the order for (signal, account), or the suppression reason.
//
// volume = equity × riskPerTrade / stopDistance, clamped to the instrument's
// min/max and floored to the volume step. Rounding always goes down — a
// rounded-up volume would risk more than the configured fraction.
func (s *Sizer) Size(sig models.Signal, acct AccountView) (*models.Order, Suppression) {
	if !acct.Connected {
		return nil, SuppressedDisconnected
	}
	// also covers an opposite-direction signal against an open position:
	// no netting, no close-and-reverse, just suppress
	if acct.HasPosition {
		return nil, SuppressedOpenPosition
	}

	stopDist := sig.StopDistance()
	if stopDist <= 0 || sig.Entry <= 0 {
		return nil, SuppressedInvalidStop
	}
	if acct.Equity <= 0 || acct.RiskPerTrade <= 0 {
		return nil, SuppressedBelowMin
	}

	riskBudget := acct.Equity * acct.RiskPerTrade
	volume := riskBudget / stopDist

	if acct.Meta.MaxVolume > 0 && volume > acct.Meta.MaxVolume {
		volume = acct.Meta.MaxVolume
	}

	step := acct.Meta.VolumeStep
	if step > 0 {
		steps := math.Floor(volume/step + 1e-9)
		volume = steps * step
	}

	if volume <= 0 || volume < acct.Meta.MinVolume {
		return nil, SuppressedBelowMin
	}

	return &models.Order{
		ID:         uuid.NewString(),
		AccountID:  acct.AccountID,
		Signal:     sig,
		Volume:     volume,
		Entry:      sig.Entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Outcome:    models.OutcomePending, // SubmittedAt is set by the dispatcher
	}, SuppressedNone
}
