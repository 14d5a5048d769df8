package llm

import (
	"fmt"

	"github.com/santiagomed/edpgen/config"
	"github.com/santiagomed/edpgen/logger"
)

// Clients are the two backends the wizard talks to.
type Clients struct {
	Summarizer Client
	Generator  Client
}

// NewClients builds the summarization and generation clients for the
// configured provider.
func NewClients(cfg *config.Config, l logger.Logger) (*Clients, error) {
	if err := cfg.ValidateClients(); err != nil {
		return nil, err
	}

	if cfg.Provider == config.ProviderOpenAI {
		client, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName, cfg.OpenAIURL, l)
		if err != nil {
			return nil, fmt.Errorf("error creating OpenAI client: %w", err)
		}
		return &Clients{Summarizer: client, Generator: client}, nil
	}

	var batchID string
	if cfg.TellmURL != "" {
		id, err := NewBatchID()
		if err != nil {
			return nil, err
		}
		batchID = id
	}
	summarizer, err := NewAgentClient(AgentConfig{
		Name:     "summarize",
		URL:      cfg.Summarize.URL,
		UserID:   cfg.Summarize.UserID,
		APIKey:   cfg.Summarize.APIKey,
		Timeout:  cfg.Timeout,
		TellmURL: cfg.TellmURL,
		BatchID:  batchID,
	}, l)
	if err != nil {
		return nil, err
	}
	generator, err := NewAgentClient(AgentConfig{
		Name:     "generate",
		URL:      cfg.Generate.URL,
		UserID:   cfg.Generate.UserID,
		APIKey:   cfg.Generate.APIKey,
		Timeout:  cfg.Timeout,
		TellmURL: cfg.TellmURL,
		BatchID:  batchID,
	}, l)
	if err != nil {
		return nil, err
	}
	return &Clients{Summarizer: summarizer, Generator: generator}, nil
}
