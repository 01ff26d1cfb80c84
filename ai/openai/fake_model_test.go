package openai

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays canned replies in order; the last reply repeats.
type fakeModel struct {
	mu       sync.Mutex
	replies  []string
	err      error
	calls    int
	messages [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return &llms.ContentResponse{}, nil
	}
	i := min(f.calls-1, len(f.replies)-1)
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.replies[i]}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}
