package service

import (
	"context"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
	"quantum_bot/internal/risk"
	"quantum_bot/pkg/logger"
)

// Shadow mirrors every live signal into a paper account so the strategy can
// be judged without risking real balance. It consumes the signal feed the
// orchestrator publishes and sizes with its own fixed risk fraction.
type Shadow struct {
	heartbeat

	paper   *broker.Paper
	handle  *accounts.Handle
	sizer   *risk.Sizer
	signals <-chan models.Signal

	mirrored   int
	suppressed int
}

func NewShadow(paper *broker.Paper, riskPerTrade float64, signals <-chan models.Signal) *Shadow {
	acct := models.Account{
		ID:           "shadow",
		Name:         "shadow paper account",
		Role:         models.RoleFollower,
		RiskPerTrade: riskPerTrade,
	}
	return &Shadow{
		paper:   paper,
		handle:  accounts.NewHandle(acct, paper),
		sizer:   risk.NewSizer(),
		signals: signals,
	}
}

func (sh *Shadow) Name() string { return "shadow" }

func (sh *Shadow) Start(ctx context.Context) error {
	sh.running.Store(true)
	defer sh.running.Store(false)

	if err := sh.handle.Connect(ctx); err != nil {
		return err
	}

	sh.beat()
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-sh.signals:
			if !ok {
				return nil
			}
			sh.mirror(ctx, sig)
			sh.beat()
		}
	}
}

func (sh *Shadow) Stop(ctx context.Context) error {
	return sh.handle.Disconnect(ctx)
}

func (sh *Shadow) Status() models.ModuleStatus { return sh.status(sh.Name()) }

func (sh *Shadow) mirror(ctx context.Context, sig models.Signal) {
	if err := sh.handle.RefreshPositions(ctx); err != nil {
		logger.Error("[SHADOW] refresh positions: %v", err)
		return
	}
	equity, err := sh.handle.Equity(ctx)
	if err != nil {
		logger.Error("[SHADOW] equity: %v", err)
		return
	}
	meta, err := sh.paper.InstrumentMeta(ctx, sig.Symbol)
	if err != nil {
		return
	}

	order, suppressed := sh.sizer.Size(sig, risk.AccountView{
		AccountID:    sh.handle.Account.ID,
		Connected:    sh.handle.Connected(),
		Equity:       equity,
		RiskPerTrade: sh.handle.Account.RiskPerTrade,
		HasPosition:  sh.handle.HasOpenPosition(sig.Symbol),
		Meta:         meta,
	})
	if suppressed != risk.SuppressedNone {
		sh.suppressed++
		sh.setHealth("suppressed", sh.suppressed)
		return
	}

	if err := sh.paper.SubmitOrder(ctx, order); err != nil {
		logger.Error("[SHADOW] submit: %v", err)
		return
	}
	sh.mirrored++
	sh.setHealth("mirrored", sh.mirrored)
	sh.setHealth("equity", equity)
}
