package service

import (
	"sync"
	"sync/atomic"
	"time"

	"quantum_bot/internal/models"
)

// heartbeat — cached liveness shared by all module variants. Status reads
// never touch the module's work loop.
type heartbeat struct {
	running  atomic.Bool
	lastBeat atomic.Int64 // unix nanos

	mu     sync.RWMutex
	health map[string]any
}

func (h *heartbeat) beat() {
	h.lastBeat.Store(time.Now().UnixNano())
}

func (h *heartbeat) setHealth(key string, value any) {
	h.mu.Lock()
	if h.health == nil {
		h.health = make(map[string]any)
	}
	h.health[key] = value
	h.mu.Unlock()
}

func (h *heartbeat) status(name string) models.ModuleStatus {
	var last time.Time
	if ns := h.lastBeat.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}

	h.mu.RLock()
	health := make(map[string]any, len(h.health))
	for k, v := range h.health {
		health[k] = v
	}
	h.mu.RUnlock()

	return models.ModuleStatus{
		Name:          name,
		Running:       h.running.Load(),
		LastHeartbeat: last,
		Health:        health,
	}
}
