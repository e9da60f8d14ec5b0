package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ListingAgent/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// scriptedCompleter returns canned responses in order and records requests.
type scriptedCompleter struct {
	responses []openai.ChatCompletionResponse
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	if i >= len(s.responses) {
		return openai.ChatCompletionResponse{}, errors.New("scripted completer exhausted")
	}
	return s.responses[i], nil
}

// stubFetcher hands the agent fixed page text.
type stubFetcher struct {
	text  string
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) string {
	f.calls++
	return f.text
}
func (f *stubFetcher) Close() error { return nil }
func (f *stubFetcher) Type() string { return "stub" }

func assistantResponse(content string, usage openai.Usage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
		Usage: usage,
	}
}

func toolCallResponse(id, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{
					{ID: id, Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: fetchToolName, Arguments: args}},
				},
			}},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func newTestAgent(fetch *stubFetcher, completers ...ChatCompleter) *Agent {
	a := &Agent{fetcher: fetch, maxTokens: 100}
	for i, c := range completers {
		name := "primary"
		if i > 0 {
			name = "fallback"
		}
		a.providers = append(a.providers, provider{name: name, model: "test-model", client: c})
	}
	return a
}

const twoProductsJSON = `{"dataset":[
	{"brand_name":"Acme","product_name":"Chair","price":"$49","rating_count":"120"},
	{"brand_name":"Acme","product_name":"Lamp","rating_count":"30"}
]}`

func TestExtractWithToolCall(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call_1", `{"url":"https://shop.example/best-sellers"}`),
		assistantResponse(twoProductsJSON, openai.Usage{PromptTokens: 200, CompletionTokens: 80, TotalTokens: 280}),
	}}
	fetch := &stubFetcher{text: "Acme Chair $49 120 ratings Acme Lamp 30 ratings"}

	a := newTestAgent(fetch, completer)
	result, report, err := a.Extract(context.Background(), "https://shop.example/best-sellers")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if len(result.Dataset) != 2 {
		t.Fatalf("got %d records; want 2", len(result.Dataset))
	}
	if result.Dataset[0].Price == nil || *result.Dataset[0].Price != "$49" {
		t.Errorf("first record price = %v; want $49", result.Dataset[0].Price)
	}
	if result.Dataset[1].Price != nil {
		t.Errorf("second record price = %v; want absent", *result.Dataset[1].Price)
	}

	if fetch.calls != 1 {
		t.Errorf("fetcher called %d times; want 1", fetch.calls)
	}
	if len(completer.requests) != 2 {
		t.Fatalf("model called %d times; want 2", len(completer.requests))
	}

	// The tool result must be fed back tied to the call ID.
	second := completer.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call_1" {
		t.Errorf("tool result message = %+v; want role tool with ToolCallID call_1", last)
	}
	if last.Content != fetch.text {
		t.Errorf("tool result content = %q; want the fetched text", last.Content)
	}

	if report.Usage.TotalTokens != 295 {
		t.Errorf("total tokens = %d; want 295 (summed over turns)", report.Usage.TotalTokens)
	}
	if report.Provider != "primary" || report.Model != "test-model" {
		t.Errorf("report = %+v; want primary/test-model", report)
	}
}

func TestExtractRetriesToolFailureOnce(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call_1", `{"url":"https://shop.example/down"}`),
		assistantResponse(twoProductsJSON, openai.Usage{}),
	}}
	fetch := &stubFetcher{text: "Error: Unable to fetch content from https://shop.example/down"}

	a := newTestAgent(fetch, completer)
	if _, _, err := a.Extract(context.Background(), "https://shop.example/down"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if fetch.calls != 2 {
		t.Errorf("fetcher called %d times; want 2 (one retry for a failed tool call)", fetch.calls)
	}
}

func TestExtractRetriesOnMalformedOutput(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		assistantResponse("here you go: not json", openai.Usage{}),
		assistantResponse(twoProductsJSON, openai.Usage{}),
	}}

	a := newTestAgent(&stubFetcher{}, completer)
	result, _, err := a.Extract(context.Background(), "https://shop.example")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(result.Dataset) != 2 {
		t.Errorf("got %d records; want 2", len(result.Dataset))
	}

	if len(completer.requests) != 2 {
		t.Fatalf("model called %d times; want 2", len(completer.requests))
	}
	msgs := completer.requests[1].Messages
	if msgs[len(msgs)-1].Role != openai.ChatMessageRoleUser {
		t.Errorf("retry turn should end with a corrective user message, got role %q", msgs[len(msgs)-1].Role)
	}
}

func TestExtractFailsAfterSchemaRetryExhausted(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		assistantResponse("not json", openai.Usage{}),
		assistantResponse("still not json", openai.Usage{}),
	}}

	a := newTestAgent(&stubFetcher{}, completer)
	_, _, err := a.Extract(context.Background(), "https://shop.example")
	if err == nil {
		t.Fatal("Extract should fail after the single schema retry is exhausted")
	}
	if !strings.Contains(err.Error(), "unexpected model behavior") {
		t.Errorf("error = %v; want an unexpected model behavior failure", err)
	}
}

func TestExtractMissingRequiredFieldTriggersRetry(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		assistantResponse(`{"dataset":[{"brand_name":"","product_name":"Chair"}]}`, openai.Usage{}),
		assistantResponse(twoProductsJSON, openai.Usage{}),
	}}

	a := newTestAgent(&stubFetcher{}, completer)
	if _, _, err := a.Extract(context.Background(), "https://shop.example"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(completer.requests) != 2 {
		t.Errorf("model called %d times; want 2 (retry after missing required field)", len(completer.requests))
	}
}

func TestExtractEmptyDataset(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		assistantResponse(`{"dataset":[]}`, openai.Usage{}),
	}}

	a := newTestAgent(&stubFetcher{}, completer)
	_, _, err := a.Extract(context.Background(), "https://shop.example")
	if err == nil || !strings.Contains(err.Error(), ErrNoValidData.Error()) {
		t.Errorf("error = %v; want the no-valid-data failure", err)
	}
}

func TestExtractProviderFallback(t *testing.T) {
	primary := &scriptedCompleter{errs: []error{errors.New("connection refused")}}
	fallback := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		assistantResponse(twoProductsJSON, openai.Usage{}),
	}}

	a := newTestAgent(&stubFetcher{}, primary, fallback)
	result, report, err := a.Extract(context.Background(), "https://shop.example")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(result.Dataset) != 2 {
		t.Errorf("got %d records; want 2", len(result.Dataset))
	}
	if report.Provider != "fallback" {
		t.Errorf("report.Provider = %q; want fallback", report.Provider)
	}
}

func TestExtractAllProvidersFail(t *testing.T) {
	primary := &scriptedCompleter{errs: []error{errors.New("connection refused")}}
	fallback := &scriptedCompleter{errs: []error{errors.New("model not found")}}

	a := newTestAgent(&stubFetcher{}, primary, fallback)
	_, _, err := a.Extract(context.Background(), "https://shop.example")
	if err == nil || !strings.Contains(err.Error(), "all providers failed") {
		t.Errorf("error = %v; want an all-providers-failed error", err)
	}
}

func TestDecodeResultSetMarkdownFence(t *testing.T) {
	result, err := decodeResultSet("```json\n" + twoProductsJSON + "\n```")
	if err != nil {
		t.Fatalf("decodeResultSet rejected fenced JSON: %v", err)
	}
	if len(result.Dataset) != 2 {
		t.Errorf("got %d records; want 2", len(result.Dataset))
	}
}

func TestValidate(t *testing.T) {
	if Validate(nil) != nil {
		t.Error("Validate(nil) should reject")
	}
	if Validate(&models.ResultSet{}) != nil {
		t.Error("Validate of empty dataset should reject")
	}

	price := "$49"
	ok := &models.ResultSet{Dataset: []models.ProductListing{
		{BrandName: "Acme", ProductName: "Chair", Price: &price},
	}}
	if Validate(ok) != ok {
		t.Error("Validate of a one-record set should accept and return it")
	}
}
