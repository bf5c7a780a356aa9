package decision

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/relaykit/mediator/ai/anthropic"
	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/logger"
)

// Advisor is the AI-advisor backend the Hybrid Decision Engine falls
// back to when the Rule Engine abstains. anthropic.Client satisfies it.
type Advisor interface {
	Advise(ctx context.Context, req anthropic.AdviceRequest) (*anthropic.AdviceResult, error)
}

// Snapshot is a read-only copy of the engine's aggregate counters,
// exposed via /api/v1/metrics/current.
type Snapshot struct {
	Total             int64
	Rules             int64
	AI                int64
	TemplateFallbacks int64
	AverageLatencyMS  float64
	RulesPercentage   float64
}

// Engine is the Hybrid Decision Engine (§4.3): it routes every
// ConfirmationRequest to the cheapest classifier that can answer it.
// The rule engine's verdict is authoritative; AI is consulted only when
// rules abstain, and is never allowed to override a rules verdict.
type Engine struct {
	cfg      *config.Config
	rules    *RuleEngine
	advisor  Advisor
	template *TemplateResponder

	advisorTimeout time.Duration

	// aiLimiters rate-limits AI-advisor calls per worker so a chatty
	// worker cannot exhaust the advisor's call budget for everyone else.
	// Every worker gets the same fixed rate (aiCallsPerSecond, burst aiCallBurst).
	limitersMu sync.Mutex
	aiLimiters map[string]*rate.Limiter

	countersMu        sync.Mutex
	total             int64
	rulesCount        int64
	aiCount           int64
	templateFallbacks int64
	totalLatencyMS    int64

	recent *recentLog
}

// NewEngine builds a Hybrid Decision Engine. advisor may be nil, in
// which case step 2 of the algorithm is always skipped.
func NewEngine(cfg *config.Config, advisor Advisor) *Engine {
	return &Engine{
		cfg:            cfg,
		rules:          NewRuleEngine(cfg),
		advisor:        advisor,
		template:       NewTemplateResponder(),
		advisorTimeout: time.Duration(cfg.AIAdvisorTimeoutMS) * time.Millisecond,
		aiLimiters:     make(map[string]*rate.Limiter),
		recent:         newRecentLog(),
	}
}

// Decide runs the three-layer algorithm and records the decision in the
// engine's aggregate counters. ctx bounds the AI-advisor step only; rule
// and template evaluation never block.
func (e *Engine) Decide(ctx context.Context, req domain.ConfirmationRequest) domain.Decision {
	start := time.Now()

	decision := e.rules.Decide(req)
	if decision.Level != domain.LevelUnknown {
		e.record(req, decision, time.Since(start))
		return decision
	}

	if e.advisor != nil && e.allowAICall(req.WorkerID) {
		if d, ok := e.tryAdvisor(ctx, req); ok {
			e.record(req, d, time.Since(start))
			return d
		}
	}

	decision = e.template.Decide(req)
	e.record(req, decision, time.Since(start))
	return decision
}

func (e *Engine) tryAdvisor(ctx context.Context, req domain.ConfirmationRequest) (domain.Decision, bool) {
	advisorCtx, cancel := context.WithTimeout(ctx, e.advisorTimeout)
	defer cancel()

	result, err := e.advisor.Advise(advisorCtx, anthropic.AdviceRequest{
		Kind:          req.Kind,
		RawPrompt:     req.RawPrompt,
		Details:       req.Details,
		WorkspaceRoot: e.cfg.WorkspaceRoot,
	})
	if err != nil {
		logger.Warnw("ai advisor call failed, falling through to template",
			logger.FieldWorkerID, req.WorkerID, logger.FieldError, err)
		return domain.Decision{}, false
	}

	return result.Decision, true
}

// allowAICall applies the per-worker AI-call rate limiter, creating one
// on first use. cfg.AIAdvisorTimeoutMS alone bounds latency; this bounds
// throughput.
func (e *Engine) allowAICall(workerID string) bool {
	e.limitersMu.Lock()
	limiter, ok := e.aiLimiters[workerID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(aiCallsPerSecond), aiCallBurst)
		e.aiLimiters[workerID] = limiter
	}
	e.limitersMu.Unlock()

	return limiter.Allow()
}

const (
	aiCallsPerSecond = 2
	aiCallBurst      = 4
)

func (e *Engine) record(req domain.ConfirmationRequest, d domain.Decision, latency time.Duration) {
	e.countersMu.Lock()
	e.total++
	e.totalLatencyMS += latency.Milliseconds()
	switch d.DecidedBy {
	case domain.DecidedByRules:
		e.rulesCount++
	case domain.DecidedByAI:
		e.aiCount++
	case domain.DecidedByTemplate:
		e.templateFallbacks++
	}
	e.countersMu.Unlock()

	e.recent.add(RecentEntry{
		Timestamp:        time.Now(),
		WorkerID:         req.WorkerID,
		DecisionType:     d.Level,
		DecidedBy:        d.DecidedBy,
		LatencyMS:        latency.Milliseconds(),
		IsFallback:       d.DecidedBy == domain.DecidedByTemplate,
		ConfirmationType: req.Kind,
		Reasoning:        d.Reasoning,
	})
}

// Recent returns up to limit of the most recent decisions across all
// workers, most recent first. limit<=0 returns everything retained.
func (e *Engine) Recent(limit int) []RecentEntry {
	return e.recent.recent(limit)
}

// Snapshot returns a read-only copy of the engine's aggregate counters.
func (e *Engine) Snapshot() Snapshot {
	e.countersMu.Lock()
	defer e.countersMu.Unlock()

	s := Snapshot{
		Total:             e.total,
		Rules:             e.rulesCount,
		AI:                e.aiCount,
		TemplateFallbacks: e.templateFallbacks,
	}
	if e.total > 0 {
		s.AverageLatencyMS = float64(e.totalLatencyMS) / float64(e.total)
		s.RulesPercentage = float64(e.rulesCount) / float64(e.total) * 100
	}
	return s
}
