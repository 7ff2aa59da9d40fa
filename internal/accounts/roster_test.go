package accounts

import (
	"context"
	"errors"
	"testing"

	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
)

// deniedService fails every connect attempt; everything else behaves like
// the paper service it embeds.
type deniedService struct {
	*broker.Paper
}

func (d deniedService) Connect(ctx context.Context, credentialsRef string) error {
	return errors.New("auth denied")
}

func master(id string) *Handle {
	return NewHandle(models.Account{ID: id, Role: models.RoleMaster, RiskPerTrade: 0.01}, broker.NewPaper(10_000))
}

func follower(id string) *Handle {
	return NewHandle(models.Account{ID: id, Role: models.RoleFollower, RiskPerTrade: 0.005}, broker.NewPaper(10_000))
}

func TestNewRosterRequiresExactlyOneMaster(t *testing.T) {
	if _, err := NewRoster([]*Handle{follower("f1")}); err == nil {
		t.Errorf("no master accepted")
	}
	if _, err := NewRoster([]*Handle{master("m1"), master("m2")}); err == nil {
		t.Errorf("two masters accepted")
	}
	r, err := NewRoster([]*Handle{master("m1"), follower("f1"), follower("f2")})
	if err != nil {
		t.Fatalf("valid roster rejected: %v", err)
	}
	if r.Master.Account.ID != "m1" || len(r.Followers) != 2 {
		t.Errorf("roster split wrong: master=%s followers=%d", r.Master.Account.ID, len(r.Followers))
	}
}

func TestConnectAllMasterFailureIsFatal(t *testing.T) {
	m := NewHandle(models.Account{ID: "m1", Role: models.RoleMaster}, deniedService{broker.NewPaper(0)})
	f := follower("f1")
	r, err := NewRoster([]*Handle{m, f})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}

	if err := r.ConnectAll(context.Background()); err == nil {
		t.Fatalf("master connect failure did not abort")
	}
	if m.State() != models.ConnFailed {
		t.Errorf("master state = %s, want failed", m.State())
	}
	if f.Connected() {
		t.Errorf("follower connected after fatal master failure")
	}
}

func TestConnectAllExcludesFailedFollower(t *testing.T) {
	m := master("m1")
	bad := NewHandle(models.Account{ID: "f-bad", Role: models.RoleFollower}, deniedService{broker.NewPaper(0)})
	good := follower("f-good")
	r, err := NewRoster([]*Handle{m, bad, good})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}

	if err := r.ConnectAll(context.Background()); err != nil {
		t.Fatalf("follower failure must not abort the run: %v", err)
	}

	connected := r.Connected()
	if len(connected) != 2 {
		t.Fatalf("connected = %d handles, want master + good follower", len(connected))
	}
	for _, h := range connected {
		if h.Account.ID == "f-bad" {
			t.Errorf("failed follower still in the connected set")
		}
	}
	if bad.State() != models.ConnFailed {
		t.Errorf("bad follower state = %s, want failed", bad.State())
	}
}

func TestHandlePositionCache(t *testing.T) {
	paper := broker.NewPaper(10_000)
	h := NewHandle(models.Account{ID: "a1", Role: models.RoleMaster}, paper)
	if err := h.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := h.RefreshPositions(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if h.HasOpenPosition("EURUSD") {
		t.Fatalf("fresh account reports an open position")
	}

	h.MarkPending("EURUSD", models.SideLong)
	if !h.HasOpenPosition("EURUSD") {
		t.Errorf("pending mark not visible in the cache")
	}

	// a refresh against the real (empty) book clears the pending mark
	if err := h.RefreshPositions(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if h.HasOpenPosition("EURUSD") {
		t.Errorf("stale pending mark survived a refresh")
	}
}
