package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/balramkumarpandey/apna-room/internal/models"
	"github.com/balramkumarpandey/apna-room/internal/services"
)

// RoomHandler handles REST requests for rooms and colonies.
type RoomHandler struct {
	roomService services.IRoomService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(roomService services.IRoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// respondValidationError renders a services.ValidationError as a 400 with
// per-field details.
func respondValidationError(c *gin.Context, err error) bool {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": vErr.Fields})
		return true
	}
	return false
}

// ListRooms handles GET /api/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	filter := services.RoomFilter{
		SortBy: c.Query("sort"),
	}

	if v := c.Query("room_type"); v != "" {
		filter.RoomType = &v
	}
	if v := c.Query("colony"); v != "" {
		filter.ColonyName = &v
	}
	if v := c.Query("tenant_type"); v != "" {
		tt := models.TenantType(strings.ToUpper(v))
		if !models.ValidTenantType(tt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant_type"})
			return
		}
		s := string(tt)
		filter.TenantType = &s
	}
	if v := c.Query("is_available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_available"})
			return
		}
		filter.IsAvailable = &avail
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		filter.Search = &v
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	filter.Limit = limit

	rooms, err := h.roomService.ListRooms(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// GetRoomByID handles GET /api/rooms/:id
func (h *RoomHandler) GetRoomByID(c *gin.Context) {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	room, err := h.roomService.FindRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve room"})
		}
		return
	}

	c.JSON(http.StatusOK, room)
}

// CreateRoom handles POST /api/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.roomService.CreateRoom(c.Request.Context(), &room)
	if err != nil {
		if respondValidationError(c, err) {
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateRoom handles PUT /api/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.roomService.UpdateRoom(c.Request.Context(), roomID, updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if respondValidationError(c, err) {
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update room"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteRoom handles DELETE /api/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete room"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListColonies handles GET /api/colonies
func (h *RoomHandler) ListColonies(c *gin.Context) {
	colonies, err := h.roomService.ListColonies(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list colonies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": colonies})
}
