package broker

import (
	"context"
	"testing"

	"quantum_bot/internal/models"
)

func TestPaperSubmitOpensPosition(t *testing.T) {
	p := NewPaper(10_000)
	ctx := context.Background()
	if err := p.Connect(ctx, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}

	order := &models.Order{
		ID:        "o1",
		AccountID: "a1",
		Signal:    models.Signal{Symbol: "EURUSD", Side: models.SideLong},
		Volume:    100,
		Entry:     1.1,
	}
	if err := p.SubmitOrder(ctx, order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.BrokerRef == "" {
		t.Errorf("no broker ref assigned")
	}

	positions, err := p.Positions(ctx)
	if err != nil || len(positions) != 1 {
		t.Fatalf("positions = %d, err %v", len(positions), err)
	}
	if positions[0].Symbol != "EURUSD" || positions[0].Volume != 100 {
		t.Errorf("position = %+v", positions[0])
	}
}

func TestPaperRejectsDuplicateAndInvalid(t *testing.T) {
	p := NewPaper(10_000)
	ctx := context.Background()
	_ = p.Connect(ctx, "")

	first := &models.Order{ID: "o1", Signal: models.Signal{Symbol: "EURUSD"}, Volume: 1}
	if err := p.SubmitOrder(ctx, first); err != nil {
		t.Fatalf("submit: %v", err)
	}

	dup := &models.Order{ID: "o2", Signal: models.Signal{Symbol: "EURUSD"}, Volume: 1}
	if err := p.SubmitOrder(ctx, dup); !IsRejection(err) {
		t.Errorf("duplicate open: err = %v, want rejection", err)
	}

	zero := &models.Order{ID: "o3", Signal: models.Signal{Symbol: "GBPUSD"}, Volume: 0}
	if err := p.SubmitOrder(ctx, zero); !IsRejection(err) {
		t.Errorf("zero volume: err = %v, want rejection", err)
	}
}

func TestPaperRequiresConnection(t *testing.T) {
	p := NewPaper(10_000)
	ctx := context.Background()

	if _, err := p.AccountInfo(ctx); err != ErrNotConnected {
		t.Errorf("account info: err = %v, want ErrNotConnected", err)
	}
	order := &models.Order{ID: "o1", Signal: models.Signal{Symbol: "EURUSD"}, Volume: 1}
	if err := p.SubmitOrder(ctx, order); err != ErrNotConnected {
		t.Errorf("submit: err = %v, want ErrNotConnected", err)
	}
}

func TestRejectionClassification(t *testing.T) {
	if !IsRejection(&RejectionError{Reason: "margin"}) {
		t.Errorf("RejectionError not classified as rejection")
	}
	if IsRejection(ErrNotConnected) {
		t.Errorf("ErrNotConnected classified as rejection")
	}
	if !IsTransient(ErrNotConnected) {
		t.Errorf("ErrNotConnected not classified as transient")
	}
	if IsTransient(nil) {
		t.Errorf("nil error classified as transient")
	}
}
