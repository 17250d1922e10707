package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/tasks"
)

// WebhookHandler handles WhatsApp webhook verification and inbound messages.
type WebhookHandler struct {
	cfg            *config.Config
	inquiryService services.IInquiryService
	roomService    services.IRoomService
	dispatcher     tasks.IDispatcher
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(cfg *config.Config, inquiryService services.IInquiryService, roomService services.IRoomService, dispatcher tasks.IDispatcher) *WebhookHandler {
	return &WebhookHandler{
		cfg:            cfg,
		inquiryService: inquiryService,
		roomService:    roomService,
		dispatcher:     dispatcher,
	}
}

// webhookPayload mirrors the Meta webhook envelope down to the first text
// message; everything else in the envelope is ignored.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Verify handles GET /webhook, the subscription handshake.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.WhatsAppVerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "Verification failed")
}

// Receive handles POST /webhook. The response is always 200 EVENT_RECEIVED;
// a webhook retry storm from the provider is worse than a dropped message.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Webhook payload parse failed: %v", err)
		c.String(http.StatusOK, "EVENT_RECEIVED")
		return
	}

	from, body, ok := firstTextMessage(&payload)
	if !ok {
		// Status updates, read receipts etc. carry no messages array.
		c.String(http.StatusOK, "EVENT_RECEIVED")
		return
	}

	h.handleMessage(c, from, body)
	c.String(http.StatusOK, "EVENT_RECEIVED")
}

// firstTextMessage digs out the first message of the envelope, if any.
func firstTextMessage(payload *webhookPayload) (from, body string, ok bool) {
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return "", "", false
	}
	messages := payload.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return "", "", false
	}
	return messages[0].From, messages[0].Text.Body, true
}

func (h *WebhookHandler) handleMessage(c *gin.Context, from, body string) {
	ctx := c.Request.Context()

	// Stickers, reactions and media arrive with an empty text body.
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}

	if from != h.cfg.WhatsAppAdminNumber {
		h.dispatch(ctx, from,
			"We have received your message! Please wait 2-5 minutes while our team verifies the payment with the bank. You will receive the landlord details shortly.")
		return
	}

	fields := strings.Fields(body)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "APPROVE") {
		// Anything else from the operator is deliberately ignored.
		log.Printf("Ignoring unrecognized operator message: %q", body)
		return
	}

	if len(fields) < 2 {
		h.dispatch(ctx, from, "Please format like this: APPROVE 9876543210")
		return
	}

	h.approve(c, fields[1])
}

// approve resolves a phone fragment to the newest matching tenant inquiry and
// forwards the landlord details to that tenant.
func (h *WebhookHandler) approve(c *gin.Context, phoneFragment string) {
	ctx := c.Request.Context()
	admin := h.cfg.WhatsAppAdminNumber

	inquiry, err := h.inquiryService.FindLatestTenantInquiryByPhone(ctx, phoneFragment)
	if err != nil {
		log.Printf("Approval lookup failed for %q: %v", phoneFragment, err)
		h.dispatch(ctx, admin, fmt.Sprintf("Could not find an inquiry for %s", phoneFragment))
		return
	}

	room, err := h.roomService.FindRoomByID(ctx, inquiry.RoomID)
	if err != nil {
		log.Printf("Room lookup failed for approved inquiry %s: %v", inquiry.ID.Hex(), err)
		h.dispatch(ctx, admin, fmt.Sprintf("Could not find an inquiry for %s", phoneFragment))
		return
	}

	details := fmt.Sprintf(
		"PAYMENT CONFIRMED!\n\nHere are the details for your room visit in %s:\n\nOwner Name: %s\nContact Number: %s\nRoom: %s\nAddress: %s\nGoogle Maps: %s\n\nPlease call the owner before visiting. Let them know ApnaRoom sent you!",
		room.ColonyName,
		orFallback(room.LandlordName, "Not Provided"),
		orFallback(room.LandlordPhone, "Not Provided"),
		room.Title, room.Address,
		orFallback(room.GoogleMapLink, "No link available"),
	)
	h.dispatch(ctx, inquiry.PhoneNumber, details)
	h.dispatch(ctx, admin, fmt.Sprintf("Details sent successfully to %s", inquiry.PhoneNumber))
}

func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// dispatch enqueues one outbound message; a failed enqueue is logged and
// otherwise dropped.
func (h *WebhookHandler) dispatch(ctx context.Context, to, body string) {
	if err := h.dispatcher.DispatchWhatsAppText(ctx, to, body); err != nil {
		log.Printf("Failed to dispatch WhatsApp message to %s: %v", to, err)
	}
}
