// README: Contract for text generation backends.
package ai

import "context"

// TextGenerator produces a short piece of prose for a prompt.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.) in the future.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
