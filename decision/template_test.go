package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaykit/mediator/domain"
)

func TestTemplateResponder_Defaults(t *testing.T) {
	tr := NewTemplateResponder()

	cases := []struct {
		kind   domain.ConfirmationKind
		action domain.Action
	}{
		{domain.KindFileWrite, domain.ActionApprove},
		{domain.KindFileDelete, domain.ActionEscalate},
		{domain.KindCommandExecute, domain.ActionEscalate},
		{domain.KindPackageInstall, domain.ActionApprove},
		{domain.KindGenericYesNo, domain.ActionEscalate},
		{domain.KindUnknown, domain.ActionEscalate},
	}

	for _, c := range cases {
		d := tr.Decide(domain.ConfirmationRequest{Kind: c.kind})
		assert.Equal(t, c.action, d.Action, "kind %s", c.kind)
		assert.Equal(t, domain.DecidedByTemplate, d.DecidedBy)
	}
}
