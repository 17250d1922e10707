package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/balramkumarpandey/apna-room/internal/services"
	"github.com/balramkumarpandey/apna-room/internal/tasks"
)

// InquiryHandler handles tenant and landlord inquiry intake.
type InquiryHandler struct {
	inquiryService services.IInquiryService
	dispatcher     tasks.IDispatcher
}

// NewInquiryHandler creates a new InquiryHandler.
func NewInquiryHandler(inquiryService services.IInquiryService, dispatcher tasks.IDispatcher) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		dispatcher:     dispatcher,
	}
}

type tenantInquiryRequest struct {
	RoomID            string `json:"room_id"`
	Name              string `json:"name"`
	PhoneNumber       string `json:"phone_number"`
	PaymentScreenshot string `json:"payment_screenshot"`
}

type landlordInquiryRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// CreateTenantInquiry handles POST /api/inquire/tenant. The inquiry is
// persisted first; the notification email is dispatched afterwards and its
// outcome does not affect the response.
func (h *InquiryHandler) CreateTenantInquiry(c *gin.Context) {
	var req tenantInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{"room_id": "invalid room ID format"}})
		return
	}

	inquiry, err := h.inquiryService.CreateTenantInquiry(c.Request.Context(), roomID, req.Name, req.PhoneNumber, req.PaymentScreenshot)
	if err != nil {
		if respondValidationError(c, err) {
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create inquiry"})
		return
	}

	if err := h.dispatcher.DispatchTenantInquiryEmail(c.Request.Context(), inquiry.ID); err != nil {
		// The inquiry is already durable; the caller does not pay for a
		// notification failure.
		log.Printf("Failed to dispatch tenant inquiry email for %s: %v", inquiry.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, inquiry)
}

// CreateLandlordInquiry handles POST /api/inquire/landlord.
func (h *InquiryHandler) CreateLandlordInquiry(c *gin.Context) {
	var req landlordInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	inquiry, err := h.inquiryService.CreateLandlordInquiry(c.Request.Context(), req.Name, req.PhoneNumber, req.Address)
	if err != nil {
		if respondValidationError(c, err) {
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create inquiry"})
		return
	}

	if err := h.dispatcher.DispatchLandlordInquiryEmail(c.Request.Context(), inquiry.ID); err != nil {
		log.Printf("Failed to dispatch landlord inquiry email for %s: %v", inquiry.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, inquiry)
}
