package mistral

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, conversationPath, r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-KEY"))
		var req ConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "agent", req.AgentID)
		assert.Equal(t, "bonjour", req.Inputs)
		_, _ = w.Write([]byte(`{"id":"c1","outputs":[{"role":"assistant","content":[{"type":"text","text":"{\"ingredients\":[]}"}]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("k", "agent", srv.URL+"/")
	require.NoError(t, err)
	resp, err := c.SendConversation(context.Background(), "bonjour")
	require.NoError(t, err)
	assert.Equal(t, `{"ingredients":[]}`, resp.FirstText())
}

func TestSendConversation_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient("k", "agent", srv.URL)
	require.NoError(t, err)
	c.Retries = 0
	_, err = c.SendConversation(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Temporary())
}

func TestSendConversation_RetriesTemporaryErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "indisponible", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message":{"content":"ok"}}`))
	}))
	defer srv.Close()

	c, err := NewClient("k", "agent", srv.URL)
	require.NoError(t, err)
	c.Backoff = time.Millisecond
	resp, err := c.SendConversation(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.FirstText())
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendConversation_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "clé invalide", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient("k", "agent", srv.URL)
	require.NoError(t, err)
	c.Backoff = time.Millisecond
	_, err = c.SendConversation(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "agent", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient("k", "", "")
	require.NoError(t, err)
	_, err = c.SendConversation(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAgentID)
}

func TestFirstText(t *testing.T) {
	var nilResp *ConversationResponse
	assert.Equal(t, "", nilResp.FirstText())
	assert.Equal(t, "a", (&ConversationResponse{Message: ConversationPiece{Content: "a"}}).FirstText())
	assert.Equal(t, "b", (&ConversationResponse{Output: "b"}).FirstText())
}
