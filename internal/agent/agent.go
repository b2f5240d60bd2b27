// Package agent invokes the text-generation capability with the org-chart
// extraction prompt. The capability is treated as opaque and unreliable:
// the agent returns whatever text came back and never inspects it, but a
// failed call is a distinguishable, fatal pipeline error.
package agent

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-scout/scout-cli/internal/prompt"
	"github.com/company-scout/scout-cli/internal/resilience"
	"github.com/company-scout/scout-cli/pkg/anthropic"
)

const systemText = "You are a sales intelligence agent. Respond with a single valid JSON object and nothing else."

// ErrCapability tags failures of the text-generation call itself (timeout,
// quota, transport). Callers match it with eris.Is to route the job to a
// rejected terminal state instead of a degraded qualified one.
var ErrCapability = eris.New("agent: capability call failed")

// Agent builds the extraction prompt and calls the model.
type Agent struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	rules     prompt.Rules
}

// New creates an Agent.
func New(client anthropic.Client, model string, maxTokens int64, rules prompt.Rules) *Agent {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Agent{client: client, model: model, maxTokens: maxTokens, rules: rules}
}

// Extract prompts the model with the corpus and returns its raw output
// text. Transient API failures are retried with backoff; a final failure
// wraps ErrCapability.
func (a *Agent) Extract(ctx context.Context, domain, corpusText string) (string, error) {
	p := prompt.Build(domain, corpusText, a.rules)

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "extract")

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.model,
			MaxTokens: a.maxTokens,
			System:    systemText,
			Messages: []anthropic.Message{
				{Role: "user", Content: p},
			},
		})
	})
	if err != nil {
		return "", eris.Wrap(ErrCapability, err.Error())
	}

	text := resp.Text()
	zap.L().Debug("agent: extraction response",
		zap.String("domain", domain),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
