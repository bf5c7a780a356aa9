package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerState_IsTerminal(t *testing.T) {
	terminal := []WorkerState{WorkerCompleted, WorkerFailed, WorkerTerminated}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
	}

	nonTerminal := []WorkerState{WorkerSpawning, WorkerRunning, WorkerWaitingConfirmation}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "expected %s to be non-terminal", s)
	}
}
