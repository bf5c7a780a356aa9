package config

import (
	"github.com/relaykit/mediator/errors"
)

// Validate checks that the configuration is self-consistent, returning a
// wrapped ErrConfigInvalid describing the first problem found. Failure
// here is fatal at startup per spec's ConfigError taxonomy.
func (c *Config) Validate() error {
	if c.WorkspaceRoot == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "workspace_root must not be empty")
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 64 {
		return errors.Wrapf(errors.ErrConfigInvalid, "max_workers must be in [1, 64], got %d", c.MaxWorkers)
	}

	if c.MaxDepth < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "max_depth must be >= 0, got %d", c.MaxDepth)
	}

	switch c.ExecutionMode {
	case ExecutionModeNative, ExecutionModeSubprocessInShell:
	default:
		return errors.Wrapf(errors.ErrConfigInvalid,
			"execution_mode must be %q or %q, got %q",
			ExecutionModeNative, ExecutionModeSubprocessInShell, c.ExecutionMode)
	}

	if c.AIAdvisorTimeoutMS <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "ai_advisor_timeout_ms must be > 0, got %d", c.AIAdvisorTimeoutMS)
	}
	if c.EscalationTimeoutS <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "escalation_timeout_s must be > 0, got %d", c.EscalationTimeoutS)
	}
	if c.PerWorkerIdleTimeoutS <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "per_worker_idle_timeout_s must be > 0, got %d", c.PerWorkerIdleTimeoutS)
	}

	if c.PollIntervalMS <= 0 || c.PollIntervalMS > 500 {
		return errors.Wrapf(errors.ErrConfigInvalid, "poll_interval_ms must be in (0, 500], got %d", c.PollIntervalMS)
	}
	if c.HistoryEmitLimit <= 0 || c.HistoryEmitLimit > 1000 {
		return errors.Wrapf(errors.ErrConfigInvalid, "history_emit_limit must be in (0, 1000], got %d", c.HistoryEmitLimit)
	}
	if c.WSSendQueueDepth <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "ws_send_queue_depth must be > 0, got %d", c.WSSendQueueDepth)
	}

	if c.Gateway.Addr == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "gateway.addr must not be empty")
	}

	return nil
}
