package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		WorkspaceRoot:         "/ws",
		MaxWorkers:            4,
		MaxDepth:              1,
		ExecutionMode:         ExecutionModeNative,
		AIAdvisorTimeoutMS:    2000,
		EscalationTimeoutS:    300,
		PerWorkerIdleTimeoutS: 120,
		PollIntervalMS:        250,
		HistoryEmitLimit:      100,
		WSSendQueueDepth:      256,
		Gateway:               GatewayConfig{Addr: ":8877"},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyWorkspaceRoot(t *testing.T) {
	c := validConfig()
	c.WorkspaceRoot = ""
	assert.Error(t, c.Validate())
}

func TestValidate_MaxWorkersOutOfRange(t *testing.T) {
	c := validConfig()
	c.MaxWorkers = 0
	assert.Error(t, c.Validate())

	c.MaxWorkers = 65
	assert.Error(t, c.Validate())
}

func TestValidate_BadExecutionMode(t *testing.T) {
	c := validConfig()
	c.ExecutionMode = "bogus"
	assert.Error(t, c.Validate())
}

func TestValidate_PollIntervalCeiling(t *testing.T) {
	c := validConfig()
	c.PollIntervalMS = 501
	assert.Error(t, c.Validate())
}

func TestValidate_HistoryEmitLimitCeiling(t *testing.T) {
	c := validConfig()
	c.HistoryEmitLimit = 1001
	assert.Error(t, c.Validate())
}
