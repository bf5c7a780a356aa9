// Package decision implements the Safety Judge: a layered Rule Engine,
// an AI-advisor fallback, and a final Template Responder, composed by
// the Hybrid Decision Engine (§4.2/§4.3).
package decision

import (
	"path/filepath"
	"strings"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/domain"
)

// prohibitedCommandPatterns are denylisted regardless of any allowlist.
var prohibitedCommandPatterns = []string{
	"rm -rf /", "rm -rf /*", "mkfs", "shutdown", "reboot", "dd if=", ":(){ :|:& };:",
}

// RuleEngine evaluates a ConfirmationRequest deterministically in
// sub-millisecond time for the common cases (§4.2). It holds no mutable
// state beyond its config snapshot, so Decide is safe to call
// concurrently from multiple worker goroutines.
type RuleEngine struct {
	cfg *config.Config
}

// NewRuleEngine builds a RuleEngine bound to a single config snapshot.
// Safety policy is fixed for the lifetime of the process (§3 Supplemented
// features: safety knobs are not hot-reloadable).
func NewRuleEngine(cfg *config.Config) *RuleEngine {
	return &RuleEngine{cfg: cfg}
}

// Decide applies the layered policy top-down; the first rule to fire
// wins. Returns domain.LevelUnknown when no rule matched, signalling the
// Hybrid Decision Engine to fall through to the AI advisor.
func (r *RuleEngine) Decide(req domain.ConfirmationRequest) domain.Decision {
	if d, ok := r.prohibited(req); ok {
		return d
	}
	if d, ok := r.dangerous(req); ok {
		return d
	}
	if d, ok := r.caution(req); ok {
		return d
	}
	if d, ok := r.safe(req); ok {
		return d
	}

	return domain.Decision{
		Level:     domain.LevelUnknown,
		Action:    domain.ActionEscalate,
		DecidedBy: domain.DecidedByRules,
		Reasoning: "no rule matched",
	}
}

// prohibited implements rule 1: PROHIBITED always denies, never escalates.
func (r *RuleEngine) prohibited(req domain.ConfirmationRequest) (domain.Decision, bool) {
	if req.Kind == domain.KindCommandExecute {
		cmd := strings.ToLower(req.Details["command"])
		for _, pattern := range prohibitedCommandPatterns {
			if strings.Contains(cmd, pattern) {
				return r.deny(domain.LevelProhibited, "command matches denylist pattern: "+pattern), true
			}
		}
	}

	if (req.Kind == domain.KindFileDelete || req.Kind == domain.KindFileWrite) && req.Details["file"] != "" {
		if isDeviceFile(req.Details["file"]) {
			return r.deny(domain.LevelProhibited, "target is a device file"), true
		}
		if !r.insideWorkspace(req.Details["file"]) && isSystemPath(req.Details["file"]) {
			return r.deny(domain.LevelProhibited, "target is outside the workspace on a system path"), true
		}
	}

	return domain.Decision{}, false
}

// dangerous implements rule 2: DANGEROUS escalates by default.
func (r *RuleEngine) dangerous(req domain.ConfirmationRequest) (domain.Decision, bool) {
	switch req.Kind {
	case domain.KindFileDelete:
		return r.dangerousVerdict("file_delete always classified DANGEROUS"), true

	case domain.KindCommandExecute:
		if !r.onSafeCommandList(req.Details["command"]) {
			return r.dangerousVerdict("command not on safe_commands allowlist"), true
		}

	case domain.KindFileWrite:
		if req.Details["file"] != "" && !r.insideWorkspace(req.Details["file"]) {
			return r.dangerousVerdict("write target is outside workspace_root"), true
		}
	}

	return domain.Decision{}, false
}

func (r *RuleEngine) dangerousVerdict(reason string) domain.Decision {
	action := domain.ActionEscalate
	if r.cfg != nil && r.cfg.UnattendedMode {
		// Unattended mode still escalates every DANGEROUS request here.
		// There is no auto-approve-dangerous allowlist, so no DANGEROUS
		// request is ever approved by the Rule Engine.
		action = domain.ActionEscalate
	}
	return domain.Decision{
		Level:     domain.LevelDangerous,
		Action:    action,
		DecidedBy: domain.DecidedByRules,
		Reasoning: reason,
	}
}

// caution implements rule 3.
func (r *RuleEngine) caution(req domain.ConfirmationRequest) (domain.Decision, bool) {
	switch req.Kind {
	case domain.KindFileWrite:
		if req.Details["file"] != "" && isUnknownExtension(req.Details["file"]) {
			return r.cautionVerdict("unrecognized file extension inside workspace"), true
		}
	case domain.KindPackageInstall:
		// Any non-empty size_hint counts; its value is not compared
		// against a size threshold.
		if req.Details["size_hint"] != "" {
			return r.cautionVerdict("install carries a size hint"), true
		}
	}
	return domain.Decision{}, false
}

func (r *RuleEngine) cautionVerdict(reason string) domain.Decision {
	action := domain.ActionEscalate
	if r.cfg != nil && r.cfg.AutoApproveCaution {
		action = domain.ActionApprove
	}
	return domain.Decision{
		Level:                 domain.LevelCaution,
		Action:                action,
		DecidedBy:             domain.DecidedByRules,
		Reasoning:             reason,
		SuggestedModification: "scope the operation to the workspace root",
	}
}

// safe implements rule 4.
func (r *RuleEngine) safe(req domain.ConfirmationRequest) (domain.Decision, bool) {
	switch req.Kind {
	case domain.KindFileWrite:
		if req.Details["file"] != "" && r.insideWorkspace(req.Details["file"]) && !isUnknownExtension(req.Details["file"]) {
			return r.safeVerdict("recognised source file kind inside workspace"), true
		}
	case domain.KindPackageInstall:
		if req.Details["size_hint"] == "" {
			return r.safeVerdict("package install from default registry"), true
		}
	case domain.KindCommandExecute:
		if isReadOnlyCommand(req.Details["command"]) {
			return r.safeVerdict("read-only command"), true
		}
	}
	return domain.Decision{}, false
}

func (r *RuleEngine) safeVerdict(reason string) domain.Decision {
	action := domain.ActionEscalate
	if r.cfg == nil || r.cfg.AutoApproveSafe {
		action = domain.ActionApprove
	}
	return domain.Decision{
		Level:     domain.LevelSafe,
		Action:    action,
		DecidedBy: domain.DecidedByRules,
		Reasoning: reason,
	}
}

func (r *RuleEngine) deny(level domain.Level, reason string) domain.Decision {
	return domain.Decision{
		Level:     level,
		Action:    domain.ActionDeny,
		DecidedBy: domain.DecidedByRules,
		Reasoning: reason,
	}
}

func (r *RuleEngine) insideWorkspace(path string) bool {
	if r.cfg == nil || r.cfg.WorkspaceRoot == "" {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(r.cfg.WorkspaceRoot)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *RuleEngine) onSafeCommandList(command string) bool {
	if r.cfg == nil {
		return false
	}
	for _, pattern := range r.cfg.SafeCommands {
		if matched, _ := filepath.Match(pattern, command); matched {
			return true
		}
		if command == pattern {
			return true
		}
	}
	return false
}

var systemPathPrefixes = []string{"/etc", "/sys", "/proc", "/boot", "/dev", "/usr/bin", "/usr/sbin", "/bin", "/sbin"}

func isSystemPath(path string) bool {
	for _, prefix := range systemPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isDeviceFile(path string) bool {
	return strings.HasPrefix(path, "/dev/")
}

var knownSourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".rs": true, ".java": true, ".c": true, ".cpp": true, ".h": true, ".hpp": true,
	".md": true, ".txt": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".sh": true, ".rb": true, ".html": true, ".css": true,
}

func isUnknownExtension(path string) bool {
	return !knownSourceExtensions[strings.ToLower(filepath.Ext(path))]
}

var readOnlyCommandPrefixes = []string{"ls", "cat", "diff", "git status", "git diff", "git log", "pwd", "echo"}

func isReadOnlyCommand(command string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(command))
	for _, prefix := range readOnlyCommandPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
