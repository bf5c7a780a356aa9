package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/domain"
)

func TestManager_EscalateApproves(t *testing.T) {
	cfg := &config.Config{WorkspaceRoot: t.TempDir(), EscalationTimeoutS: 2}
	called := false
	mgr := NewManager(cfg, decision.NewEngine(cfg, nil), func(req domain.ConfirmationRequest, d domain.Decision) bool {
		called = true
		return true
	})

	approved := mgr.escalate(domain.ConfirmationRequest{WorkerID: "w"}, domain.Decision{})
	assert.True(t, approved)
	assert.True(t, called)
}

func TestManager_EscalateDeniesOnTimeout(t *testing.T) {
	cfg := &config.Config{WorkspaceRoot: t.TempDir(), EscalationTimeoutS: 1}
	mgr := NewManager(cfg, decision.NewEngine(cfg, nil), func(req domain.ConfirmationRequest, d domain.Decision) bool {
		time.Sleep(3 * time.Second)
		return true
	})

	approved := mgr.escalate(domain.ConfirmationRequest{WorkerID: "w"}, domain.Decision{})
	assert.False(t, approved)
}

func TestManager_EscalateDeniesOnNilCallback(t *testing.T) {
	cfg := &config.Config{WorkspaceRoot: t.TempDir(), EscalationTimeoutS: 1}
	mgr := NewManager(cfg, decision.NewEngine(cfg, nil), nil)

	approved := mgr.escalate(domain.ConfirmationRequest{WorkerID: "w"}, domain.Decision{})
	assert.False(t, approved)
}
