package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/genai"

	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/models"
)

const providerName = "gemini"

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// Client scores interview transcripts with Gemini
type Client struct {
	generate generateFunc
	config   *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	generate := func(ctx context.Context, model, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		if result == nil {
			return "", nil
		}
		return result.Text()
	}

	return &Client{
		generate: generate,
		config:   config,
	}, nil
}

// ScoreInterview sends the feedback prompt and decodes the JSON assessment in the reply.
func (c *Client) ScoreInterview(ctx context.Context, prompt string) (*models.Assessment, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty prompt",
		}
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	text, err := c.generate(ctx, c.config.Model, prompt)
	if err != nil {
		return nil, classifyError(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidResponse,
			Message:  "Empty response generated",
		}
	}

	assessment, err := parseAssessment(text)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidResponse,
			Message:  "Response is not a valid assessment",
			Err:      err,
		}
	}
	return assessment, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func classifyError(err error) *llm.ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeTimeout, Message: "Scoring timed out", Err: err}
	case isRateLimitError(err):
		return &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeRateLimit, Message: "Rate limit exceeded", Err: err}
	case isAuthError(err):
		return &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeAPIKey, Message: "API key rejected", Err: err}
	default:
		return &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeServiceDown, Message: "Failed to generate feedback", Err: err}
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "permission_denied")
}

// parseAssessment decodes the first JSON object in text, tolerating markdown code fences around it.
func parseAssessment(text string) (*models.Assessment, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}

	var a models.Assessment
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
