package decision

import "github.com/relaykit/mediator/domain"

// TemplateResponder holds the conservative per-kind default used when
// both the Rule Engine and the AI advisor have failed to produce a
// usable answer (§4.3 step 3, final fallback before outright deny).
type TemplateResponder struct{}

// NewTemplateResponder constructs a stateless TemplateResponder.
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

// Decide returns the fixed per-kind template decision.
func (TemplateResponder) Decide(req domain.ConfirmationRequest) domain.Decision {
	switch req.Kind {
	case domain.KindFileWrite:
		return templateDecision(domain.ActionApprove, "template default: file_write inside workspace")
	case domain.KindFileDelete:
		return templateDecision(domain.ActionEscalate, "template default: file_delete")
	case domain.KindCommandExecute:
		return templateDecision(domain.ActionEscalate, "template default: command_execute")
	case domain.KindPackageInstall:
		return templateDecision(domain.ActionApprove, "template default: package_install")
	case domain.KindGenericYesNo:
		return templateDecision(domain.ActionEscalate, "template default: generic_yes_no")
	default:
		return templateDecision(domain.ActionEscalate, "template default: unknown")
	}
}

func templateDecision(action domain.Action, reason string) domain.Decision {
	return domain.Decision{
		Level:     domain.LevelUnknown,
		Action:    action,
		DecidedBy: domain.DecidedByTemplate,
		Reasoning: reason,
	}
}
