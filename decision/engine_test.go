package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/ai/anthropic"
	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/domain"
)

type fakeAdvisor struct {
	result *anthropic.AdviceResult
	err    error
}

func (f *fakeAdvisor) Advise(ctx context.Context, req anthropic.AdviceRequest) (*anthropic.AdviceResult, error) {
	return f.result, f.err
}

func engineConfig() *config.Config {
	cfg := testConfig()
	cfg.AIAdvisorTimeoutMS = 2000
	return cfg
}

func TestEngine_RulesDecideWithoutConsultingAdvisor(t *testing.T) {
	advisor := &fakeAdvisor{}
	e := NewEngine(engineConfig(), advisor)

	d := e.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w1",
		Kind:     domain.KindFileWrite,
		Details:  map[string]string{"file": "/ws/main.go"},
	})

	assert.Equal(t, domain.DecidedByRules, d.DecidedBy)
	assert.Equal(t, domain.ActionApprove, d.Action)
}

func TestEngine_FallsThroughToAIWhenRulesAbstain(t *testing.T) {
	advisor := &fakeAdvisor{
		result: &anthropic.AdviceResult{
			Decision: domain.Decision{
				Level:     domain.LevelSafe,
				Action:    domain.ActionApprove,
				DecidedBy: domain.DecidedByAI,
				Reasoning: "looks fine",
			},
		},
	}
	e := NewEngine(engineConfig(), advisor)

	d := e.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w2",
		Kind:     domain.KindGenericYesNo,
	})

	assert.Equal(t, domain.DecidedByAI, d.DecidedBy)
	assert.Equal(t, domain.ActionApprove, d.Action)
}

func TestEngine_FallsThroughToTemplateWhenAIFails(t *testing.T) {
	advisor := &fakeAdvisor{err: assert.AnError}
	e := NewEngine(engineConfig(), advisor)

	d := e.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w3",
		Kind:     domain.KindGenericYesNo,
	})

	assert.Equal(t, domain.DecidedByTemplate, d.DecidedBy)
	assert.Equal(t, domain.ActionEscalate, d.Action)
}

func TestEngine_SnapshotAggregates(t *testing.T) {
	advisor := &fakeAdvisor{err: assert.AnError}
	e := NewEngine(engineConfig(), advisor)

	e.Decide(context.Background(), domain.ConfirmationRequest{WorkerID: "w4", Kind: domain.KindFileWrite, Details: map[string]string{"file": "/ws/a.go"}})
	e.Decide(context.Background(), domain.ConfirmationRequest{WorkerID: "w4", Kind: domain.KindGenericYesNo})

	snap := e.Snapshot()
	require.EqualValues(t, 2, snap.Total)
	assert.EqualValues(t, 1, snap.Rules)
	assert.EqualValues(t, 1, snap.TemplateFallbacks)
}

func TestEngine_NilAdvisorSkipsAIStep(t *testing.T) {
	e := NewEngine(engineConfig(), nil)

	d := e.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w5",
		Kind:     domain.KindGenericYesNo,
	})

	assert.Equal(t, domain.DecidedByTemplate, d.DecidedBy)
}
