package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santiagomed/edpgen/logger"
	tellm "github.com/santiagomed/tellm/sdk"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrProtocol is returned when an agent response is neither an output nor an
// error body.
var ErrProtocol = errors.New("unexpected agent response")

// AgentError carries the error reported by an agent endpoint.
type AgentError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *AgentError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("agent error: %s (request %s)", e.Message, e.RequestID)
	}
	return fmt.Sprintf("agent error: %s", e.Message)
}

// AgentConfig identifies one agent endpoint and the credentials it expects.
type AgentConfig struct {
	Name     string
	URL      string
	UserID   string
	APIKey   string
	Timeout  time.Duration
	TellmURL string
	BatchID  string
}

type AgentRequest struct {
	Input AgentInput `json:"input"`
}

type AgentInput struct {
	Query string `json:"query"`
}

type agentResponse struct {
	Output *struct {
		Content *string `json:"content"`
	} `json:"output"`
	Detail *struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId"`
	} `json:"detail"`
}

// AgentClient calls a function-execution agent endpoint.
type AgentClient struct {
	config      AgentConfig
	httpClient  *http.Client
	tellmClient *tellm.Client
	tracer      trace.Tracer
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
}

func NewAgentClient(cfg AgentConfig, l logger.Logger) (*AgentClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%s agent URL is required", cfg.Name)
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	l = l.WithField("agent", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.Warn(fmt.Sprintf("Circuit breaker %s changed from %s to %s", name, from, to))
		},
	}

	c := &AgentClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     otel.Tracer("edpgen/llm"),
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     l,
	}
	if cfg.TellmURL != "" {
		c.tellmClient = tellm.NewClient(cfg.TellmURL)
		if c.config.BatchID == "" {
			id, err := NewBatchID()
			if err != nil {
				return nil, err
			}
			c.config.BatchID = id
		}
	}
	return c, nil
}

// Complete posts query to the endpoint and returns output.content.
func (c *AgentClient) Complete(ctx context.Context, query string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "agent."+c.config.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.url", c.config.URL),
		attribute.Int("agent.query_length", len(query)),
	)

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Error(fmt.Sprintf("Agent call failed after %v: %v", time.Since(start), err))
		return "", err
	}

	content := result.(string)
	c.logger.Debug(fmt.Sprintf("Agent call completed in %v (%d bytes)", time.Since(start), len(content)))
	if c.tellmClient != nil {
		if err := c.tellmClient.Log(c.config.BatchID, query, content); err != nil {
			c.logger.WithField("warning", err).Warn("failed to log to tellm")
		}
	}
	return content, nil
}

func (c *AgentClient) do(ctx context.Context, query string) (string, error) {
	jsonData, err := json.Marshal(AgentRequest{Input: AgentInput{Query: query}})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-user-id", c.config.UserID)
	httpReq.Header.Set("x-authentication", "api-key "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return decodeAgentResponse(resp.StatusCode, body)
}

func decodeAgentResponse(status int, body []byte) (string, error) {
	var parsed agentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if status < 200 || status > 299 {
			return "", fmt.Errorf("%w: status %d", ErrProtocol, status)
		}
		return "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	if parsed.Detail != nil && parsed.Detail.Error != "" {
		return "", &AgentError{
			StatusCode: status,
			Message:    parsed.Detail.Error,
			RequestID:  parsed.Detail.RequestID,
		}
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: status %d", ErrProtocol, status)
	}
	if parsed.Output == nil || parsed.Output.Content == nil {
		return "", ErrProtocol
	}
	return *parsed.Output.Content, nil
}
