package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/balramkumarpandey/apna-room/internal/config"
	"github.com/balramkumarpandey/apna-room/internal/models"
	"github.com/balramkumarpandey/apna-room/internal/utils"
)

func setupTestDBInquiry(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "rooms", "colonies", "tenant_inquiries", "landlord_inquiries")
}

func createTestRoom(t *testing.T, db *mongo.Database) *models.Room {
	t.Helper()
	svc := NewRoomService(db, &config.Config{})
	room, err := svc.CreateRoom(context.Background(), &models.Room{
		Title:      "1RK near gate 2",
		Price:      4500,
		Address:    "Durga Colony, Sector 15",
		ColonyName: "Durga Colony",
	})
	assert.NoError(t, err)
	return room
}

func TestInquiryService_CreateTenantInquiry(t *testing.T) {
	db := setupTestDBInquiry(t, "testdb_inquiry_service_tenant")
	svc := NewInquiryService(db, &config.Config{})
	ctx := context.Background()

	room := createTestRoom(t, db)

	inquiry, err := svc.CreateTenantInquiry(ctx, room.ID, "Ravi Kumar", "919876543210", "payment_proofs/abc.png")
	assert.NoError(t, err)
	assert.NotNil(t, inquiry)
	assert.False(t, inquiry.ID.IsZero())
	assert.Equal(t, room.ID, inquiry.RoomID)
	assert.Equal(t, "payment_proofs/abc.png", inquiry.PaymentScreenshot)

	found, err := svc.FindTenantInquiryByID(ctx, inquiry.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", found.Name)
}

func TestInquiryService_CreateTenantInquiry_Validation(t *testing.T) {
	db := setupTestDBInquiry(t, "testdb_inquiry_service_tenant_validation")
	svc := NewInquiryService(db, &config.Config{})
	ctx := context.Background()

	room := createTestRoom(t, db)

	_, err := svc.CreateTenantInquiry(ctx, room.ID, "", "", "")
	assert.Error(t, err)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "phone_number")

	// Referenced room must exist
	_, err = svc.CreateTenantInquiry(ctx, primitive.NewObjectID(), "Ravi Kumar", "919876543210", "")
	assert.Error(t, err)
	assert.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "room")
}

func TestInquiryService_CreateLandlordInquiry(t *testing.T) {
	db := setupTestDBInquiry(t, "testdb_inquiry_service_landlord")
	svc := NewInquiryService(db, &config.Config{})
	ctx := context.Background()

	inquiry, err := svc.CreateLandlordInquiry(ctx, "Gupta", "919811111111", "Sector 15, Gurgaon")
	assert.NoError(t, err)
	assert.False(t, inquiry.ID.IsZero())

	found, err := svc.FindLandlordInquiryByID(ctx, inquiry.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Gupta", found.Name)

	_, err = svc.CreateLandlordInquiry(ctx, "", "", "")
	assert.Error(t, err)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "phone_number")
	assert.Contains(t, vErr.Fields, "address")
}

func TestInquiryService_FindLatestTenantInquiryByPhone(t *testing.T) {
	db := setupTestDBInquiry(t, "testdb_inquiry_service_phone_lookup")
	svc := NewInquiryService(db, &config.Config{})
	ctx := context.Background()

	room := createTestRoom(t, db)

	older, err := svc.CreateTenantInquiry(ctx, room.ID, "Ravi Kumar", "919876543210", "")
	assert.NoError(t, err)

	// Backdate the first inquiry so the second is strictly newer.
	_, err = db.Collection("tenant_inquiries").UpdateOne(ctx,
		bson.M{"_id": older.ID},
		bson.M{"$set": bson.M{"created_at": time.Now().UTC().Add(-time.Hour)}},
	)
	assert.NoError(t, err)

	newer, err := svc.CreateTenantInquiry(ctx, room.ID, "Ravi Kumar", "919876543210", "payment_proofs/second.png")
	assert.NoError(t, err)

	// A tail fragment matches and the newest wins
	found, err := svc.FindLatestTenantInquiryByPhone(ctx, "9876543210")
	assert.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)

	// Full number also matches
	found, err = svc.FindLatestTenantInquiryByPhone(ctx, "919876543210")
	assert.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)

	// Miss
	_, err = svc.FindLatestTenantInquiryByPhone(ctx, "0000000000")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, mongo.ErrNoDocuments))

	// An empty fragment never matches everything
	_, err = svc.FindLatestTenantInquiryByPhone(ctx, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, mongo.ErrNoDocuments))
}
