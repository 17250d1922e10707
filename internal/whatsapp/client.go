package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/balramkumarpandey/apna-room/internal/config"
)

// IClient defines the interface for sending WhatsApp messages via the
// Meta Graph API.
type IClient interface {
	SendText(ctx context.Context, to, body string) error
}

// textMessage is the Graph API payload for a plain text message.
type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// client implements IClient.
type client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient creates a new WhatsApp client.
func NewClient(cfg *config.Config) IClient {
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendText posts one text message to the configured phone number endpoint.
func (c *client) SendText(ctx context.Context, to, body string) error {
	if c.cfg.WhatsAppAccessToken == "" || c.cfg.WhatsAppPhoneNumberID == "" {
		log.Println("WARN: WhatsApp credentials not configured. Skipping send.")
		return nil
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.WhatsAppAPIBaseURL, c.cfg.WhatsAppPhoneNumberID)
	payload := textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal WhatsApp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("Error creating WhatsApp request: %v", err)
		return fmt.Errorf("failed to create WhatsApp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.WhatsAppAccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling WhatsApp messages endpoint: %v", err)
		return fmt.Errorf("failed to contact WhatsApp API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("WhatsApp send to %s returned status %d - Body: %s", to, resp.StatusCode, string(respBody))
		return fmt.Errorf("whatsapp send failed with status %d", resp.StatusCode)
	}

	log.Printf("WhatsApp message sent to %s", to)
	return nil
}
