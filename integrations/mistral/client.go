package mistral

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
)

const (
	defaultBaseURL     = "https://api.mistral.ai"
	conversationPath   = "/v1/conversations"
	defaultHTTPTimeout = 30 * time.Second
)

// Client parle à un agent Mistral via l'API conversations.
type Client struct {
	apiKey  string
	agentID string
	baseURL string
	http    *http.Client

	// Retries est le nombre de nouveaux essais sur 429 et 5xx.
	Retries int
	Backoff time.Duration
}

type ConversationRequest struct {
	AgentID string `json:"agent_id"`
	Inputs  any    `json:"inputs"`
}

type ConversationResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Status  string               `json:"status"`
	Message ConversationPiece    `json:"message"`
	Outputs []ConversationOutput `json:"outputs"`
	Output  any                  `json:"output"`
}

type ConversationPiece struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ConversationOutput struct {
	ID      string              `json:"id"`
	Object  string              `json:"object"`
	Role    string              `json:"role"`
	Content []ConversationChunk `json:"content"`
}

type ConversationChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	ErrMissingAPIKey  = errors.New("MISTRAL_API_KEY manquant")
	ErrMissingAgentID = errors.New("MISTRAL_AGENT_ID manquant")
)

// StatusError est renvoyée pour toute réponse HTTP hors 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mistral conversation status %d: %s", e.Code, e.Body)
}

// Temporary indique une erreur qui mérite un nouvel essai (quota, panne amont).
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// NewClient construit un client vers baseURL (api.mistral.ai si vide).
func NewClient(apiKey, agentID, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		agentID: agentID,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		Retries: 1,
		Backoff: 500 * time.Millisecond,
	}, nil
}

// SendConversation envoie prompt à l'agent. Les réponses 429 et 5xx sont
// retentées Retries fois, avec une attente croissante.
func (c *Client) SendConversation(ctx context.Context, prompt string) (*ConversationResponse, error) {
	if c.agentID == "" {
		return nil, ErrMissingAgentID
	}
	payload, err := json.Marshal(ConversationRequest{AgentID: c.agentID, Inputs: prompt})
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		out, err := c.post(ctx, payload)
		var se *StatusError
		if err == nil || !errors.As(err, &se) || !se.Temporary() || attempt >= c.Retries {
			return out, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Backoff * time.Duration(attempt+1)):
		}
	}
}

func (c *Client) post(ctx context.Context, payload []byte) (*ConversationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+conversationPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out ConversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mistral: réponse illisible: %w", err)
	}
	return &out, nil
}

// FirstText renvoie le premier texte de la réponse, quel que soit le format
// (message, outputs ou output).
func (r *ConversationResponse) FirstText() string {
	if r == nil {
		return ""
	}
	if r.Message.Content != "" {
		return r.Message.Content
	}
	for _, out := range r.Outputs {
		for _, chunk := range out.Content {
			if chunk.Text != "" {
				return chunk.Text
			}
		}
	}
	if text, ok := r.Output.(string); ok && text != "" {
		return text
	}
	return ""
}
