package accounts

import (
	"context"
	"fmt"
	"sync"

	"quantum_bot/internal/models"
	"quantum_bot/pkg/logger"
)

// Roster — the master account plus its followers for one run.
type Roster struct {
	Master    *Handle
	Followers []*Handle
}

// NewRoster splits configured accounts into master/followers. Exactly one
// master is required.
func NewRoster(handles []*Handle) (*Roster, error) {
	r := &Roster{}
	for _, h := range handles {
		switch h.Account.Role {
		case models.RoleMaster:
			if r.Master != nil {
				return nil, fmt.Errorf("more than one master account configured (%s, %s)",
					r.Master.Account.ID, h.Account.ID)
			}
			r.Master = h
		case models.RoleFollower:
			r.Followers = append(r.Followers, h)
		default:
			return nil, fmt.Errorf("account %s: unknown role %q", h.Account.ID, h.Account.Role)
		}
	}
	if r.Master == nil {
		return nil, fmt.Errorf("no master account configured")
	}
	return r, nil
}

// ConnectAll connects the master first (fatal on failure), then followers
// concurrently. A follower that fails to connect is logged and excluded;
// the run continues without it.
func (r *Roster) ConnectAll(ctx context.Context) error {
	if err := r.Master.Connect(ctx); err != nil {
		return fmt.Errorf("master: %w", err)
	}

	var wg sync.WaitGroup
	for _, f := range r.Followers {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			if err := h.Connect(ctx); err != nil {
				logger.Error("follower %s excluded from run: %v", h.Account.ID, err)
			}
		}(f)
	}
	wg.Wait()
	return nil
}

// DisconnectAll closes every session, master last.
func (r *Roster) DisconnectAll(ctx context.Context) {
	for _, f := range r.Followers {
		if f.State() != models.ConnDisconnected {
			if err := f.Disconnect(ctx); err != nil {
				logger.Error("%v", err)
			}
		}
	}
	if r.Master.State() != models.ConnDisconnected {
		if err := r.Master.Disconnect(ctx); err != nil {
			logger.Error("%v", err)
		}
	}
}

// Connected — every handle currently able to trade, master included.
func (r *Roster) Connected() []*Handle {
	out := make([]*Handle, 0, len(r.Followers)+1)
	if r.Master.Connected() {
		out = append(out, r.Master)
	}
	for _, f := range r.Followers {
		if f.Connected() {
			out = append(out, f)
		}
	}
	return out
}

// All — every configured handle regardless of state.
func (r *Roster) All() []*Handle {
	out := make([]*Handle, 0, len(r.Followers)+1)
	out = append(out, r.Master)
	out = append(out, r.Followers...)
	return out
}
