package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/models"
)

// Models often wrap JSON replies in markdown fences despite instructions
// not to; the payload inside the fence is still valid.
var jsonFencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*([\\s\\S]*?)```")

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	BaseURL       string
	APIKey        string
	DailyModel    string
	ResearchModel string
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	client *resty.Client
	cfg    OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAIClient creates an advisor backed by a chat-completions API.
// Request deadlines come from the caller's context, not a client-wide
// timeout: the tactical and strategic calls run on very different clocks.
func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger) *OpenAIClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetAuthToken(cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("component", "advisor").Logger(),
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// DailyDecision sends the tactical prompt and parses the structured reply.
func (c *OpenAIClient) DailyDecision(ctx context.Context, prompt string) (*models.Decision, error) {
	raw, err := c.complete(ctx, c.cfg.DailyModel, prompt)
	if err != nil {
		return nil, err
	}

	var decision models.Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision payload: %w", err)
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	c.log.Info().Int("orders", len(decision.Orders)).Msg("Daily decision received")
	return &decision, nil
}

// WeeklyResearch sends the strategic prompt and parses the structured reply.
func (c *OpenAIClient) WeeklyResearch(ctx context.Context, prompt string) (*models.Research, error) {
	raw, err := c.complete(ctx, c.cfg.ResearchModel, prompt)
	if err != nil {
		return nil, err
	}

	var research models.Research
	if err := json.Unmarshal([]byte(raw), &research); err != nil {
		return nil, fmt.Errorf("failed to parse research payload: %w", err)
	}
	if err := research.Validate(); err != nil {
		return nil, err
	}
	c.log.Info().Int("orders", len(research.Orders)).Int("chars", len(research.Text)).Msg("Weekly research received")
	return &research, nil
}

func (c *OpenAIClient) complete(ctx context.Context, model, prompt string) (string, error) {
	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	started := time.Now()
	var parsed chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/chat/completions")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrDecisionTimeout, time.Since(started).Round(time.Second))
		}
		return "", fmt.Errorf("failed to call decision provider: %w", err)
	}
	if resp.IsError() {
		if parsed.Error != nil {
			return "", fmt.Errorf("decision provider error (%s): %s", resp.Status(), parsed.Error.Message)
		}
		return "", fmt.Errorf("decision provider error: %s", resp.Status())
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("decision provider returned no choices")
	}

	return StripJSONFences(parsed.Choices[0].Message.Content), nil
}

// StripJSONFences extracts the JSON payload from a possibly fenced reply.
func StripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	if m := jsonFencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}
