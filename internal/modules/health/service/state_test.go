package service

import (
	"testing"
	"time"
)

func TestStateDefaults(t *testing.T) {
	s := NewState()
	if s.Ready() {
		t.Errorf("new state reports ready")
	}
	if s.StateName() != "idle" {
		t.Errorf("state name = %q, want idle", s.StateName())
	}
	if !s.LastCycle().IsZero() {
		t.Errorf("last cycle set before any cycle ran")
	}
}

func TestStateTracksCycleAndReadiness(t *testing.T) {
	s := NewState()

	s.SetReady(true)
	s.SetStateName("running")
	at := time.Now().Truncate(time.Second)
	s.TouchCycle(at)

	if !s.Ready() || s.StateName() != "running" {
		t.Errorf("ready=%v state=%q", s.Ready(), s.StateName())
	}
	if got := s.LastCycle(); !got.Equal(at) {
		t.Errorf("last cycle = %v, want %v", got, at)
	}
}
