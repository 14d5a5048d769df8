package llm

import (
	"context"
	"fmt"
)

// Summarize condenses raw document text into a specification.
func Summarize(ctx context.Context, client Client, text string) (string, error) {
	summary, err := client.Complete(ctx, SummarizeQuery(text))
	if err != nil {
		return "", fmt.Errorf("failed to summarize specification: %w", err)
	}
	return summary, nil
}

// Generate sends a built prompt and returns the generated source text.
func Generate(ctx context.Context, client Client, prompt string) (string, error) {
	code, err := client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}

// Regenerate asks the backend to revise a file according to instruction.
func Regenerate(ctx context.Context, client Client, name, content, instruction string) (string, error) {
	code, err := client.Complete(ctx, RegenerateQuery(name, content, instruction))
	if err != nil {
		return "", fmt.Errorf("failed to regenerate %s: %w", name, err)
	}
	if code == "" {
		return "", fmt.Errorf("regenerated content for %s is empty", name)
	}
	return code, nil
}

// Compare returns a markdown report comparing two artifacts.
func Compare(ctx context.Context, client Client, leftKind, leftText, rightKind, rightText string) (string, error) {
	report, err := client.Complete(ctx, CompareQuery(leftKind, leftText, rightKind, rightText))
	if err != nil {
		return "", fmt.Errorf("failed to compare files: %w", err)
	}
	return report, nil
}

// GenerateUseCase returns use-case documentation for legacy source files.
func GenerateUseCase(ctx context.Context, client Client, files []SourceFile) (string, error) {
	doc, err := client.Complete(ctx, UseCaseQuery(files))
	if err != nil {
		return "", fmt.Errorf("failed to generate use case documentation: %w", err)
	}
	return doc, nil
}
