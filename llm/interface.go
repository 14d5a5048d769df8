package llm

import "context"

// Client sends a natural-language query to a text-generation backend and
// returns the generated text.
type Client interface {
	Complete(ctx context.Context, query string) (string, error)
}
