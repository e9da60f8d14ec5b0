// Package agent orchestrates the structured-extraction conversation with the
// language model: it seeds the prompt, answers the model's fetch tool calls,
// enforces the result schema with one bounded retry, and validates the final
// dataset before handing it back.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"ListingAgent/internal/fetcher"
	"ListingAgent/internal/models"
	"ListingAgent/internal/observability"
	"ListingAgent/pkg/config"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoValidData reports a structurally valid but empty extraction result.
var ErrNoValidData = errors.New("no valid data retrieved")

// maxTurns caps the conversation length so a model that never stops calling
// the fetch tool cannot loop forever.
const maxTurns = 10

// Usage accumulates the token counters reported by the model.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func (u *Usage) add(v openai.Usage) {
	u.PromptTokens += v.PromptTokens
	u.CompletionTokens += v.CompletionTokens
	u.TotalTokens += v.TotalTokens
}

// Report describes which provider produced the result and what it cost.
type Report struct {
	Provider string
	Model    string
	Usage    Usage
}

type provider struct {
	name   string
	model  string
	client ChatCompleter
}

// Agent runs extraction conversations against an ordered provider chain.
type Agent struct {
	providers   []provider
	fetcher     fetcher.Fetcher
	maxTokens   int
	temperature float32
}

// New builds the agent from the extractor config. The primary provider is
// tried first, then the configured fallbacks in order.
func New(cfg config.ExtractorConfig, f fetcher.Fetcher) (*Agent, error) {
	providerMap := make(map[string]config.ProviderConfig)
	for _, p := range cfg.Providers {
		providerMap[p.Name] = p
	}

	var chain []provider
	primaryConf, ok := providerMap[cfg.PrimaryProvider]
	if !ok {
		return nil, fmt.Errorf("primary provider %q not found in config", cfg.PrimaryProvider)
	}
	log.Printf("Primary provider set to: '%s'", primaryConf.Name)
	chain = append(chain, newProvider(primaryConf))

	for _, name := range cfg.FallbackProviders {
		fallbackConf, ok := providerMap[name]
		if !ok {
			log.Printf("Warning: Fallback provider '%s' not found in config, skipping.", name)
			continue
		}
		log.Printf("Fallback provider added: '%s'", fallbackConf.Name)
		chain = append(chain, newProvider(fallbackConf))
	}

	return &Agent{
		providers:   chain,
		fetcher:     f,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func newProvider(p config.ProviderConfig) provider {
	clientConfig := openai.DefaultConfig(p.ApiKey)
	if p.ApiURL != "" {
		// Points the client at a locally served OpenAI-compatible model
		// (Ollama and friends).
		clientConfig.BaseURL = p.ApiURL
	}
	return provider{
		name:   p.Name,
		model:  p.Model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Extract runs one structured conversation per provider until one of them
// returns a validated, non-empty result set.
func (a *Agent) Extract(ctx context.Context, seedURL string) (*models.ResultSet, Report, error) {
	var lastErr error
	for i, p := range a.providers {
		log.Printf("   - Attempting extraction with provider #%d ('%s')...", i+1, p.name)
		result, usage, err := a.extractWith(ctx, p, seedURL)
		if err != nil {
			lastErr = err
			log.Printf("   - Provider #%d failed: %v", i+1, err)
			continue
		}
		log.Printf("   - Provider #%d succeeded.", i+1)
		return result, Report{Provider: p.name, Model: p.model, Usage: usage}, nil
	}
	return nil, Report{}, fmt.Errorf("all providers failed. last error: %w", lastErr)
}

func (a *Agent) extractWith(ctx context.Context, p provider, seedURL string) (*models.ResultSet, Usage, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: seedURL},
	}

	var usage Usage
	retried := false

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Messages:    messages,
			Tools:       []openai.Tool{fetchTool()},
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, usage, err
		}
		usage.add(resp.Usage)

		if len(resp.Choices) == 0 {
			return nil, usage, errors.New("model returned no choices")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
			for _, tc := range msg.ToolCalls {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    a.runTool(ctx, tc),
					ToolCallID: tc.ID,
				})
			}
			continue
		}

		result, err := decodeResultSet(msg.Content)
		if err != nil {
			if retried {
				return nil, usage, fmt.Errorf("unexpected model behavior: %w", err)
			}
			retried = true
			log.Printf("WARN: Model output failed schema validation, retrying once: %v", err)
			messages = append(messages, msg, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: retryPrompt,
			})
			continue
		}

		if Validate(result) == nil {
			return nil, usage, ErrNoValidData
		}
		return result, usage, nil
	}

	return nil, usage, errors.New("model did not produce a final answer")
}

// runTool answers one tool call from the model. Fetch failures are reported
// back to the model as text; one extra fetch attempt is made before giving up.
func (a *Agent) runTool(ctx context.Context, tc openai.ToolCall) string {
	if tc.Function.Name != fetchToolName {
		return fmt.Sprintf("Error: unknown tool %q", tc.Function.Name)
	}

	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("Error: invalid tool arguments: %v", err)
	}

	text := a.fetcher.Fetch(ctx, args.URL)
	if isFetchError(text) {
		text = a.fetcher.Fetch(ctx, args.URL)
	}
	if isFetchError(text) {
		observability.FetchesTotal.WithLabelValues("error").Inc()
	} else {
		observability.FetchesTotal.WithLabelValues("ok").Inc()
	}
	return text
}

func isFetchError(text string) bool {
	return strings.HasPrefix(text, "Error:")
}

// decodeResultSet parses the model's final answer and checks the required
// fields of every record.
func decodeResultSet(content string) (*models.ResultSet, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON answers in markdown fences even in JSON mode.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var result models.ResultSet
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	for i, p := range result.Dataset {
		if p.BrandName == "" || p.ProductName == "" {
			return nil, fmt.Errorf("record %d is missing a required field", i)
		}
	}
	return &result, nil
}

// Validate accepts a result set only when it is well-formed and contains at
// least one record; otherwise it returns nil and the caller surfaces the
// failure.
func Validate(result *models.ResultSet) *models.ResultSet {
	log.Println("Validating scraped data...")
	if result == nil || len(result.Dataset) == 0 {
		log.Println("WARN: Validation failed. No valid data retrieved.")
		return nil
	}
	log.Println("Validation successful.")
	return result
}
