package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		WorkspaceRoot:      "/ws",
		AutoApproveSafe:    true,
		AutoApproveCaution: false,
		UnattendedMode:     false,
		SafeCommands:       []string{"git status", "ls*"},
	}
}

func TestRuleEngine_ProhibitedDenylistCommand(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{
		Kind:    domain.KindCommandExecute,
		Details: map[string]string{"command": "rm -rf /"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelProhibited, d.Level)
	assert.Equal(t, domain.ActionDeny, d.Action)
}

func TestRuleEngine_ProhibitedSystemPathOutsideWorkspace(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{
		Kind:    domain.KindFileDelete,
		Details: map[string]string{"file": "/etc/passwd"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelProhibited, d.Level)
	assert.Equal(t, domain.ActionDeny, d.Action)
}

func TestRuleEngine_DangerousFileDeleteEscalates(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{
		Kind:    domain.KindFileDelete,
		Details: map[string]string{"file": "/ws/tmp.txt"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelDangerous, d.Level)
	assert.Equal(t, domain.ActionEscalate, d.Action)
}

func TestRuleEngine_SafeWriteAutoApproved(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{
		Kind:    domain.KindFileWrite,
		Details: map[string]string{"file": "/ws/src/main.py"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelSafe, d.Level)
	assert.Equal(t, domain.ActionApprove, d.Action)
}

func TestRuleEngine_SafeCommandAllowlisted(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{
		Kind:    domain.KindCommandExecute,
		Details: map[string]string{"command": "git status"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelSafe, d.Level)
	assert.Equal(t, domain.ActionApprove, d.Action)
}

func TestRuleEngine_UnknownFallsThrough(t *testing.T) {
	re := NewRuleEngine(testConfig())
	req := domain.ConfirmationRequest{Kind: domain.KindGenericYesNo}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelUnknown, d.Level)
}

func TestRuleEngine_CautionAutoApproveConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AutoApproveCaution = true
	re := NewRuleEngine(cfg)
	req := domain.ConfirmationRequest{
		Kind:    domain.KindFileWrite,
		Details: map[string]string{"file": "/ws/data.bin"},
	}
	d := re.Decide(req)
	assert.Equal(t, domain.LevelCaution, d.Level)
	assert.Equal(t, domain.ActionApprove, d.Action)
}
