package llm

import (
	"fmt"

	"github.com/google/uuid"
)

// NewBatchID names the tellm batch that groups the prompts of one run, so the
// summarize and generate calls of a run read back together.
func NewBatchID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("error generating tellm batch id: %w", err)
	}
	return "edpgen-" + id.String(), nil
}
