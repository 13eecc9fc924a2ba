package model

import "testing"

func TestVaultStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to VaultStatus
		ok       bool
	}{
		{StatusUploaded, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusUploaded, StatusFailed, true},
		{StatusProcessing, StatusFailed, true},
		{StatusUploaded, StatusCompleted, false},
		{StatusProcessing, StatusProcessing, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusUploaded, false},
		{StatusCompleted, StatusUploaded, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestVaultStatusTerminal(t *testing.T) {
	if StatusUploaded.Terminal() || StatusProcessing.Terminal() {
		t.Fatal("uploaded/processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatal("completed/failed must be terminal")
	}
}
