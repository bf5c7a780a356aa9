// Package config holds the mediator's closed configuration record.
//
// Config is parsed once at startup (Load) into an immutable struct;
// nothing in the supervisor reaches back into Viper or the environment
// after that point. The handful of knobs listed in watcher.go as
// hot-reloadable are the only exception, and they are never
// safety-relevant.
package config

// Config is the mediator's complete set of configuration knobs.
// Every field corresponds to one of the enumerated options the
// supervisor accepts; there is no open-ended or dynamically named
// configuration surface.
type Config struct {
	WorkspaceRoot string `mapstructure:"workspace_root"`
	MaxWorkers    int    `mapstructure:"max_workers"`
	MaxDepth      int    `mapstructure:"max_depth"`

	// ExecutionMode selects how a worker's command is launched: "native"
	// execs the binary directly, "subprocess_in_shell" wraps it in the
	// user's shell (see worker/pty.go).
	ExecutionMode string `mapstructure:"execution_mode"`

	AutoApproveSafe    bool `mapstructure:"auto_approve_safe"`
	AutoApproveCaution bool `mapstructure:"auto_approve_caution"`
	UnattendedMode     bool `mapstructure:"unattended_mode"`

	SafeCommands     []string `mapstructure:"safe_commands"`
	DenylistCommands []string `mapstructure:"denylist_commands"`

	AIAdvisorTimeoutMS    int `mapstructure:"ai_advisor_timeout_ms"`
	EscalationTimeoutS    int `mapstructure:"escalation_timeout_s"`
	PerWorkerIdleTimeoutS int `mapstructure:"per_worker_idle_timeout_s"`

	PollIntervalMS    int `mapstructure:"poll_interval_ms"`
	HistoryEmitLimit  int `mapstructure:"history_emit_limit"`
	WSSendQueueDepth  int `mapstructure:"ws_send_queue_depth"`
	RawLogANSIStrip   bool `mapstructure:"raw_log_ansi_strip"`

	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Log       LogConfig       `mapstructure:"log"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

// GatewayConfig configures the Streaming Gateway's HTTP/WebSocket listener.
// Not part of spec.md §6.5's enumerated supervisor options, since the
// gateway's bind address is a deployment concern rather than a safety
// or behavior knob.
type GatewayConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultGatewayPort is the Streaming Gateway's default listen port.
const DefaultGatewayPort = 8877

// ExecutionMode values.
const (
	ExecutionModeNative             = "native"
	ExecutionModeSubprocessInShell  = "subprocess_in_shell"
)

// AnthropicConfig configures the AI advisor backend (ai/anthropic).
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LogConfig configures the ambient logger.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Theme string `mapstructure:"theme"`
}

// File system permission constants shared across the on-disk layout (§6.6).
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
