package domain

// Level is the safety classification a ConfirmationRequest is given.
type Level string

const (
	LevelSafe       Level = "SAFE"
	LevelCaution    Level = "CAUTION"
	LevelDangerous  Level = "DANGEROUS"
	LevelProhibited Level = "PROHIBITED"
	// LevelUnknown is the Rule Engine's "I abstain" signal, on which the
	// engine falls through to the next layer. Template Responder
	// decisions also carry it, since that layer assigns no safety level.
	LevelUnknown Level = "UNKNOWN"
)

// Action is the effective reply a Decision produces.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionDeny     Action = "deny"
	ActionEscalate Action = "escalate"
)

// DecidedBy records which layer of the Hybrid Decision Engine produced
// a Decision.
type DecidedBy string

const (
	DecidedByRules    DecidedBy = "rules"
	DecidedByAI       DecidedBy = "ai"
	DecidedByTemplate DecidedBy = "template"
)

// Decision is the Safety Judge's verdict on a ConfirmationRequest.
// PROHIBITED always implies Action == deny; DANGEROUS implies
// Action == escalate unless policy explicitly auto-approves it.
type Decision struct {
	Level                 Level
	Action                Action
	DecidedBy             DecidedBy
	Reasoning             string
	LatencyMS             int64
	SuggestedModification string
}
