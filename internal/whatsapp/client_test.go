package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balramkumarpandey/apna-room/internal/config"
)

func TestSendText_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"messages":[{"id":"wamid.test"}]}`))
	}))
	defer srv.Close()

	cfg := &config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "test-token",
		WhatsAppPhoneNumberID: "123456789",
	}
	c := NewClient(cfg)

	err := c.SendText(context.Background(), "919876543210", "hello there")
	require.NoError(t, err)

	assert.Equal(t, "/123456789/messages", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "whatsapp", gotPayload["messaging_product"])
	assert.Equal(t, "919876543210", gotPayload["to"])
	assert.Equal(t, "text", gotPayload["type"])
	text, ok := gotPayload["text"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello there", text["body"])
}

func TestSendText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	cfg := &config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "bad-token",
		WhatsAppPhoneNumberID: "123456789",
	}
	c := NewClient(cfg)

	err := c.SendText(context.Background(), "919876543210", "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendText_NotConfigured(t *testing.T) {
	// Without credentials the client logs and skips, matching the dev-mode
	// behavior of the email senders.
	cfg := &config.Config{WhatsAppAPIBaseURL: "http://localhost:0"}
	c := NewClient(cfg)

	err := c.SendText(context.Background(), "919876543210", "hello")
	assert.NoError(t, err)
}
