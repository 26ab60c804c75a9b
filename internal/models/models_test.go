package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from BridgeStatus
		to   BridgeStatus
		ok   bool
	}{
		{StatusPending, StatusVerifying, true},
		{StatusVerifying, StatusProofGenerated, true},
		{StatusProofGenerated, StatusSubmitting, true},
		{StatusSubmitting, StatusCompleted, true},

		// FAILED is reachable from every non-terminal state.
		{StatusPending, StatusFailed, true},
		{StatusVerifying, StatusFailed, true},
		{StatusProofGenerated, StatusFailed, true},
		{StatusSubmitting, StatusFailed, true},

		// No skipping stages and no moving backwards.
		{StatusPending, StatusProofGenerated, false},
		{StatusPending, StatusCompleted, false},
		{StatusVerifying, StatusSubmitting, false},
		{StatusVerifying, StatusCompleted, false},
		{StatusProofGenerated, StatusCompleted, false},
		{StatusVerifying, StatusPending, false},
		{StatusSubmitting, StatusVerifying, false},

		// Terminal states never transition.
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusPending, false},
		{StatusFailed, StatusVerifying, false},
		{StatusFailed, StatusCompleted, false},

		// Self transitions are not transitions.
		{StatusVerifying, StatusVerifying, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusVerifying.IsTerminal())
	assert.False(t, StatusProofGenerated.IsTerminal())
	assert.False(t, StatusSubmitting.IsTerminal())
}
