package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the service's answer to one chat request, with usage counters
// for cost accounting.
type Reply struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// ChatClient sends one conversation to the text-generation service.
// Implementations return *ServiceUnavailableError for transport and server
// failures so the retry loop can classify them.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (*Reply, error)
}

// OllamaClient calls the Ollama /api/chat endpoint for generative responses.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a chat client targeting the given Ollama instance
// and model. The timeout caps a single request; retries live above this.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message         Message `json:"message"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Chat sends a conversation to Ollama and returns the assistant's response.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (*Reply, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, &InvalidResponseError{Reason: "marshal chat request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceUnavailableError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ServiceUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ServiceUnavailableError{
			Status: resp.StatusCode,
			Err:    errBody(respBody),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &InvalidResponseError{Reason: "decode chat response: " + err.Error()}
	}

	return &Reply{
		Content:      result.Message.Content,
		InputTokens:  result.PromptEvalCount,
		OutputTokens: result.EvalCount,
	}, nil
}

type bodyError string

func (e bodyError) Error() string { return string(e) }

func errBody(b []byte) error {
	if len(b) == 0 {
		return bodyError("empty error body")
	}
	return bodyError(string(b))
}
