package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults registers the default value for every configuration key.
// Called before any config file or environment variable is merged in,
// so file/env values always win.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workspace_root", ".")
	v.SetDefault("max_workers", 8)
	v.SetDefault("max_depth", 1)
	v.SetDefault("execution_mode", ExecutionModeNative)

	v.SetDefault("auto_approve_safe", true)
	v.SetDefault("auto_approve_caution", false)
	v.SetDefault("unattended_mode", false)

	v.SetDefault("safe_commands", []string{})
	v.SetDefault("denylist_commands", []string{})

	v.SetDefault("ai_advisor_timeout_ms", 2000)
	v.SetDefault("escalation_timeout_s", 300) // 5 minutes, per §6.4
	v.SetDefault("per_worker_idle_timeout_s", 120)

	v.SetDefault("poll_interval_ms", 250)
	v.SetDefault("history_emit_limit", 100)
	v.SetDefault("ws_send_queue_depth", 256)
	v.SetDefault("raw_log_ansi_strip", true)

	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")

	v.SetDefault("gateway.addr", fmt.Sprintf(":%d", DefaultGatewayPort))
	v.SetDefault("gateway.allowed_origins", []string{})
}

// BindSensitiveEnvVars explicitly binds config values that should never be
// committed to a TOML file to their environment variable equivalents.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("anthropic.api_key", "MEDIATOR_ANTHROPIC_API_KEY")
}

// String renders a compact, human-readable summary for CLI/log output.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{workspace_root=%s max_workers=%d execution_mode=%s auto_approve_safe=%t unattended_mode=%t}",
		c.WorkspaceRoot, c.MaxWorkers, c.ExecutionMode, c.AutoApproveSafe, c.UnattendedMode,
	)
}
