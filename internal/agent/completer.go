package agent

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the slice of the OpenAI client the agent depends on.
// *openai.Client satisfies it; tests substitute a scripted stub so no real
// model is called.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
