// Package anthropic is a hand-rolled client for the Anthropic Messages
// API, used as the Hybrid Decision Engine's AI advisor backend when the
// Rule Engine abstains (returns UNKNOWN).
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/internal/httpclient"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "claude-sonnet-4-20250514"

	// BaseURL is the Anthropic API endpoint.
	BaseURL = "https://api.anthropic.com/v1"

	// APIVersion is the required Anthropic API version header.
	APIVersion = "2023-06-01"
)

// Client is an Anthropic Messages API client scoped to the advisor role:
// it only ever asks one question (classify this ConfirmationRequest) and
// expects one JSON-shaped answer.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Config holds Anthropic client configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Debug       bool
}

// NewClient creates a new Anthropic API client wrapped in an SSRF-safer
// HTTP client (outbound calls to a configurable API host should never be
// allowed to reach internal network ranges).
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2 // deterministic default
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}

	blockPrivateIP := true
	saferClient := httpclient.NewSaferClientWithOptions(30*time.Second, httpclient.SaferClientOptions{
		BlockPrivateIP: &blockPrivateIP,
	})

	return &Client{
		apiKey:     config.APIKey,
		baseURL:    BaseURL,
		httpClient: saferClient.Client,
		config:     config,
	}
}

// MessagesRequest represents a request to the Anthropic Messages API.
type MessagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MessagesResponse is the response envelope from the Messages API.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock is a content block in the response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage is token usage information, surfaced on the returned AdviceResult
// for cost accounting.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AdviceRequest describes a ConfirmationRequest the Rule Engine abstained
// on, in the compact form the advisor prompt needs (§4.3 step 2).
type AdviceRequest struct {
	Kind          domain.ConfirmationKind
	RawPrompt     string
	Details       map[string]string
	WorkspaceRoot string
	// ContextWindow is a bounded slice of recent transcript/raw-log
	// content surrounding the prompt, for disambiguation.
	ContextWindow string
}

// AdviceResult is the parsed advisor answer plus accounting info the
// caller (the Hybrid Decision Engine) needs for its metrics.
type AdviceResult struct {
	Decision domain.Decision
	Usage    Usage
	Model    string
}

// adviceResponse is the fixed JSON shape the advisor prompt instructs
// the model to reply with.
type adviceResponse struct {
	Level                 string `json:"level"`
	Action                string `json:"action"`
	Reasoning             string `json:"reasoning"`
	SuggestedModification string `json:"suggested_modification,omitempty"`
}

// Advise asks the model to classify req and returns a parsed Decision
// tagged decided_by=ai. The rule engine's verdict is never overridden by
// this call; the Hybrid Decision Engine only invokes Advise when the
// Rule Engine abstained.
func (c *Client) Advise(ctx context.Context, req AdviceRequest) (*AdviceResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key not configured")
	}

	msgReq := MessagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		System:      advisorSystemPrompt,
		Messages: []Message{
			{Role: "user", Content: buildAdvicePrompt(req)},
		},
	}

	start := time.Now()

	var resp *MessagesResponse
	var err error

	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		resp, err = c.createMessages(ctx, msgReq)
		if err == nil {
			break
		}
		if !isRetryableError(err) {
			return nil, fmt.Errorf("anthropic advisor call failed: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("anthropic advisor call failed after %d attempts: %w", maxRetries, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	parsed, err := parseAdviceResponse(text.String())
	if err != nil {
		return nil, fmt.Errorf("anthropic advisor response unparseable: %w", err)
	}

	return &AdviceResult{
		Decision: domain.Decision{
			Level:                  domain.Level(parsed.Level),
			Action:                 domain.Action(parsed.Action),
			DecidedBy:              domain.DecidedByAI,
			Reasoning:              parsed.Reasoning,
			LatencyMS:              time.Since(start).Milliseconds(),
			SuggestedModification:  parsed.SuggestedModification,
		},
		Usage: resp.Usage,
		Model: resp.Model,
	}, nil
}

const advisorSystemPrompt = `You are a safety classifier for an autonomous coding-assistant supervisor.
Given a confirmation prompt emitted by a worker process, respond with a
single JSON object and nothing else, of the form:
{"level": "SAFE|CAUTION|DANGEROUS|PROHIBITED", "action": "approve|deny|escalate", "reasoning": "...", "suggested_modification": "..."}
PROHIBITED must always pair with action=deny. DANGEROUS should usually pair with action=escalate.`

func buildAdvicePrompt(req AdviceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind: %s\n", req.Kind)
	fmt.Fprintf(&b, "workspace_root: %s\n", req.WorkspaceRoot)
	fmt.Fprintf(&b, "prompt: %s\n", req.RawPrompt)
	if len(req.Details) > 0 {
		b.WriteString("details:\n")
		for k, v := range req.Details {
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}
	if req.ContextWindow != "" {
		fmt.Fprintf(&b, "context:\n%s\n", req.ContextWindow)
	}
	return b.String()
}

// parseAdviceResponse extracts the JSON object from the model's reply.
// Models occasionally wrap JSON in prose or code fences; this tolerates
// the common cases without accepting arbitrary trailing garbage as valid.
func parseAdviceResponse(text string) (*adviceResponse, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var parsed adviceResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, err
	}
	if parsed.Level == "" || parsed.Action == "" {
		return nil, fmt.Errorf("response missing level/action")
	}
	return &parsed, nil
}

func (c *Client) createMessages(ctx context.Context, req MessagesRequest) (*MessagesResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(respBody, &messagesResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &messagesResp, nil
}

// isRetryableError checks if an error is worth retrying.
func isRetryableError(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	if opErr, ok := err.(*net.OpError); ok {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset by peer", "connection refused", "timeout",
		"temporary failure", "network is unreachable", "i/o timeout",
		"overloaded", "529",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// IsConfigured returns true if the client has an API key set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SetHTTPClient allows overriding the HTTP client in tests.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
