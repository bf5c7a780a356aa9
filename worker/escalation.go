package worker

import "github.com/relaykit/mediator/domain"

// OnEscalation is the host-installed callback for the `escalate` action
// (§6.4). It must return within the manager's escalation timeout; a
// call that does not return in time has its result discarded and the
// effective answer falls back to deny.
type OnEscalation func(req domain.ConfirmationRequest, decision domain.Decision) (approve bool)
