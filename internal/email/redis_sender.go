package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/balramkumarpandey/apna-room/internal/config"
)

// RedisSender implements the Sender interface by storing emails in Redis.
// Used with MOCK_SERVICES=true so end-to-end tests can fetch the email that
// would have been sent via the service API's getTestEmail method.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// actionTypeForSubject maps a notification subject to a stable key fragment.
func actionTypeForSubject(subject string) string {
	switch {
	case strings.Contains(subject, "PAYMENT RECEIVED"):
		return "payment_received"
	case strings.Contains(subject, "New Inquiry"):
		return "tenant_inquiry"
	case strings.Contains(subject, "Property Listing Request"):
		return "landlord_inquiry"
	}
	return "unknown"
}

// Send stores a representation of the email in Redis instead of sending it via SMTP.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	actionType := actionTypeForSubject(subject)

	// For Redis, a single primary recipient keys the mock entry.
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	emailData := map[string]interface{}{
		"to":         strings.Join(to, ", "),
		"from":       s.cfg.SmtpFromAddress,
		"subject":    subject,
		"body":       string(rawMessage),
		"sent_at":    time.Now().UTC().Format(time.RFC3339Nano),
		"actionType": actionType,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, actionType)
	ttl := 5 * time.Minute

	err = s.client.Set(ctx, key, jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, ttl, strings.Join(to, ", "), subject)
	return nil
}
