package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/scoring"
)

const systemPrompt = `You are an experienced leadership coach. You receive a candidate's ` +
	`competency scores as JSON. Reply with a JSON object with the keys "summary" ` +
	`(one paragraph), "strengths" (array of short sentences) and "development_areas" ` +
	`(array of short sentences). Do not add any other text.`

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type promptInput struct {
	Name   string             `json:"name,omitempty"`
	Role   string             `json:"role,omitempty"`
	Scores []model.ScoreTuple `json:"scores"`
}

var errEmptyReply = errors.New("empty reply")

// Generate asks the model for a narrative. A reply that is not the
// requested JSON object is kept as a free-text summary.
func (c *Client) Generate(ctx context.Context, candidate model.Candidate, ranked []model.CompetencyScore) (Recommendation, error) {
	input, err := json.Marshal(promptInput{
		Name:   candidate.Name,
		Role:   candidate.Role,
		Scores: scoring.Tuples(ranked),
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("marshal prompt: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(input)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Recommendation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Recommendation{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Recommendation{}, fmt.Errorf("API error %d: %s", resp.StatusCode, string(snippet))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Recommendation{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return Recommendation{}, errEmptyReply
	}

	return parseReply(chat.Choices[0].Message.Content)
}

func parseReply(content string) (Recommendation, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return Recommendation{}, errEmptyReply
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(content), &rec); err != nil || rec.Summary == "" {
		return Recommendation{Source: SourceAI, Summary: content, Strengths: []string{}, DevelopmentAreas: []string{}}, nil
	}
	rec.Source = SourceAI
	if rec.Strengths == nil {
		rec.Strengths = []string{}
	}
	if rec.DevelopmentAreas == nil {
		rec.DevelopmentAreas = []string{}
	}
	return rec, nil
}
